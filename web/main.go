package main

import (
	"flag"
	"log"
	"os"

	"github.com/df07/go-blackhole-raytracer/web/server"
)

func main() {
	port := flag.Int("port", 8080, "Port to serve on")
	flag.Parse()

	webServer := server.NewServer(*port)

	log.Printf("Black Hole Raytracer Web Server")
	log.Printf("Visit http://localhost:%d to start the live view", *port)

	if err := webServer.Start(); err != nil {
		log.Printf("Error starting server: %v", err)
		os.Exit(1)
	}
}
