package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"poolup_server/routes"
	"poolup_server/services"
	"poolup_server/socket"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodbstreams"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize DynamoDB client and remote collection
	log.Println("Initializing DynamoDB client...")
	dynamoClient := services.InitializeDynamoDBClient()
	dynamoService := &services.DynamoService{Client: dynamoClient}
	remote := services.NewDynamoGroupRemote(dynamoService)
	log.Println("DynamoDB client initialized.")

	// Initialize the local group cache and services
	store := services.NewGroupStore(durationFromEnv("GROUP_TTL_MINUTES", 30))
	syncService := services.NewGroupSyncService(remote, store)
	queryService := services.NewGroupQueryService(store)
	evictionService := services.NewEvictionService(store, syncService, durationFromEnv("EVICTION_INTERVAL_MINUTES", 30))

	// Initialize the Socket.IO server and wire change broadcasts
	socketServer := socket.NewSocketServer()
	syncService.Notifier = socket.NewBroadcaster(socketServer)
	go func() {
		if err := socketServer.Serve(); err != nil {
			log.Printf("Socket server stopped: %v", err)
		}
	}()
	defer socketServer.Close()

	// Warm the cache with an initial pull; a failing remote is not fatal,
	// the store just starts empty.
	if count, err := syncService.PullAll(ctx); err != nil {
		log.Printf("❌ Initial group pull failed: %v", err)
	} else {
		log.Printf("Warmed cache with %d groups", count)
	}

	// Start the eviction scheduler
	go evictionService.Start(ctx)

	// Subscribe to the remote change stream unless disabled
	if os.Getenv("DISABLE_GROUP_STREAM") != "true" {
		cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(os.Getenv("AWS_REGION")))
		if err != nil {
			log.Fatalf("Failed to load AWS config: %v", err)
		}
		streamService := services.NewGroupStreamService(dynamoClient, dynamodbstreams.NewFromConfig(cfg), store)
		streamService.Notifier = syncService.Notifier
		go func() {
			if err := streamService.Run(ctx); err != nil {
				log.Printf("❌ Group stream subscription failed: %v", err)
			}
		}()
	}

	// Set up the server port
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Using server port: %s\n", port)

	// Initialize the router
	r := mux.NewRouter()

	// Register a welcome route
	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "Welcome to PoolUp")
	}).Methods("GET")

	// Register a health check endpoint
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		response := map[string]interface{}{"status": "healthy", "cachedGroups": store.Len()}
		json.NewEncoder(w).Encode(response)
	}).Methods("GET")

	// Register routes
	routes.RegisterGroupRoutes(r, syncService, queryService, store)
	routes.RegisterS3Routes(r)
	r.Handle("/socket.io/", socketServer)

	// Add CORS middleware
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"}, // Adjust for specific domains if needed
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(r)

	// Start the HTTP server
	log.Printf("Starting server on port %s...\n", port)
	server := &http.Server{Addr: ":" + port, Handler: corsHandler}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}

func durationFromEnv(name string, defaultMinutes int) time.Duration {
	minutes := defaultMinutes
	if raw := os.Getenv(name); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			minutes = n
		}
	}
	return time.Duration(minutes) * time.Minute
}
