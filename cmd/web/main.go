package main

import "projchat_backend/internal/app"

func main() {
	app.Run()
}
