package main

import "orgflow/internal/app/server"

func main() {
	server.Run()
}
