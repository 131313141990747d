package main

//go:generate swag init -g cmd/ledgerd/main.go -o docs

// @title           Lotto Ledger API
// @version         0.1.0
// @description     Bet intake, settlement, revert, archival and gateway callbacks.
// @host            localhost:8080
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
