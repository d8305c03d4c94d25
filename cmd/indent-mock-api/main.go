package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/mikelcalvo/indent-cli/internal/mockapi"
)

func main() {
	srv := mockapi.NewServer()

	// MOCK_ID_SHAPE picks the header creation response: id, indent_id, instance or none
	switch os.Getenv("MOCK_ID_SHAPE") {
	case "indent_id":
		srv.SetIDShape(mockapi.ShapeIndentID)
	case "instance":
		srv.SetIDShape(mockapi.ShapeInstance)
	case "none":
		srv.SetIDShape(mockapi.ShapeNone)
	}

	r := gin.Default()
	srv.Register(r)

	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "Indent mock API is running"})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8000"
	}
	log.Printf("indent mock API listening on :%s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}
