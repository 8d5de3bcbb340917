// @title           bookswap API
// @version         1.0
// @description     Catalog of books users own and want, and the swaps between them.
// @BasePath        /api/v1
// @securityDefinitions.apikey BearerToken
// @in              header
// @name            Authorization
// @description     Type "Bearer" followed by a space and a JWT whose sub claim is your user id.
package api
