package routes

import (
	"poolup_server/controllers"

	"github.com/gorilla/mux"
)

// RegisterS3Routes sets up routes for group image uploads
func RegisterS3Routes(r *mux.Router) {
	r.HandleFunc("/generate-presigned-url", controllers.GeneratePresignedURL).Methods("POST")
	r.HandleFunc("/get-presigned-read-url", controllers.GetPresignedReadURL).Methods("POST")
}
