// @title           Canvango Payment Gateway API
// @version         1.0
// @description     Payment-callback security gateway and payment API (Swagger documentation).
// @host            localhost:4000
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in              header
// @name            Authorization

package main

import "canvango_backend/internal/app"

func main() {
	app.Run()
}
