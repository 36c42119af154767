package main

import "accounthub/internal/app"

// @title           AccountHub API
// @version         1.0
// @description     Account management with email and SMS verification codes.

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	app.Run()
}
