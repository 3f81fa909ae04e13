package main

import "coursehub-backend/internal/cli"

func main() {
	cli.Execute()
}
