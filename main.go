package main

import "authgate/internal/app"

func main() {
	app.Run()
}
