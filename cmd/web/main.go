package main

import "examportal/internal/app"

func main() {
	app.Run()
}
