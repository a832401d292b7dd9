package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/gurutech/guru-erp/internal/auth"
	"github.com/gurutech/guru-erp/internal/db"
	"github.com/gurutech/guru-erp/internal/engine"
	"github.com/gurutech/guru-erp/internal/events"
	"github.com/gurutech/guru-erp/internal/handlers"
	"github.com/gurutech/guru-erp/internal/middleware"
	"github.com/gurutech/guru-erp/internal/models"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found, using environment variables")
	}

	log.SetFormatter(&log.JSONFormatter{})
	if os.Getenv("LOG_LEVEL") == "debug" {
		log.SetLevel(log.DebugLevel)
	}

	client, err := db.ConnectMongo()
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to MongoDB")
	}
	defer client.Disconnect(context.Background())

	dbName := os.Getenv("MONGO_DB")
	if dbName == "" {
		dbName = "guru_erp"
	}
	store := db.NewMongoStore(client.Database(dbName))
	log.WithField("database", dbName).Info("Connected to MongoDB")

	authService, err := auth.NewService()
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize auth service")
	}

	if err := seedAdmin(context.Background(), store, authService); err != nil {
		log.WithError(err).Fatal("Failed to seed admin account")
	}

	var publisher events.Publisher = events.NopPublisher{}
	if broker := os.Getenv("MQTT_BROKER"); broker != "" {
		mqttPub, err := events.NewMQTTPublisher(broker)
		if err != nil {
			log.WithError(err).Warn("MQTT broker unreachable, ticket events disabled")
		} else {
			defer mqttPub.Close()
			publisher = mqttPub
			log.WithField("broker", broker).Info("Publishing ticket events over MQTT")
		}
	}

	ticketEngine := engine.NewTicketEngine(store, store, store, publisher)
	leadEngine := engine.NewLeadEngine(store, store)

	authHandler := handlers.NewAuthHandler(authService, store)
	initHandler := handlers.NewInitHandler(store)
	ticketHandler := handlers.NewTicketHandler(ticketEngine, store)
	leadHandler := handlers.NewLeadHandler(leadEngine, store)
	customerHandler := handlers.NewCustomerHandler(store)
	partHandler := handlers.NewPartHandler(store, store)
	userHandler := handlers.NewUserHandler(authService, store)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("POST /api/login", authHandler.Login)
	mux.HandleFunc("GET /api/profile", authHandler.GetProfile)
	mux.HandleFunc("GET /api/init", initHandler.Snapshot)

	mux.HandleFunc("GET /api/tickets", ticketHandler.List)
	mux.HandleFunc("POST /api/tickets", ticketHandler.Create)
	mux.HandleFunc("PUT /api/tickets/{id}", ticketHandler.Update)
	mux.HandleFunc("POST /api/tickets/{id}/assign", ticketHandler.Assign)
	mux.HandleFunc("POST /api/tickets/{id}/start", ticketHandler.Start)
	mux.HandleFunc("POST /api/tickets/{id}/complete", ticketHandler.Complete)
	mux.HandleFunc("POST /api/tickets/{id}/cancel", ticketHandler.Cancel)
	mux.HandleFunc("GET /api/tickets/{id}/history", ticketHandler.History)

	mux.HandleFunc("GET /api/leads", leadHandler.List)
	mux.HandleFunc("POST /api/leads", leadHandler.Create)
	mux.HandleFunc("PUT /api/leads/{id}", leadHandler.Update)
	mux.HandleFunc("DELETE /api/leads/{id}", leadHandler.Delete)
	mux.HandleFunc("POST /api/leads/{id}/follow-up", leadHandler.ScheduleFollowUp)
	mux.HandleFunc("POST /api/leads/{id}/estimate", leadHandler.SendEstimate)
	mux.HandleFunc("POST /api/leads/{id}/sold", leadHandler.MarkSold)
	mux.HandleFunc("POST /api/leads/{id}/lost", leadHandler.MarkLost)
	mux.HandleFunc("POST /api/leads/{id}/convert", leadHandler.Convert)
	mux.HandleFunc("GET /api/leads/{id}/history", leadHandler.History)

	mux.HandleFunc("GET /api/customers", customerHandler.List)
	mux.HandleFunc("POST /api/customers", customerHandler.Create)
	mux.HandleFunc("GET /api/customers/{id}", customerHandler.Get)
	mux.HandleFunc("POST /api/customers/{id}/machines", customerHandler.AddMachine)
	mux.HandleFunc("PUT /api/customers/{id}/machines/{machineId}", customerHandler.UpdateMachine)
	mux.HandleFunc("DELETE /api/customers/{id}/machines/{machineId}", customerHandler.DeleteMachine)

	mux.HandleFunc("GET /api/parts", partHandler.List)
	mux.HandleFunc("POST /api/parts", partHandler.Create)
	mux.HandleFunc("PUT /api/parts/{id}", partHandler.Update)
	mux.HandleFunc("GET /api/machine-types", partHandler.ListMachineTypes)
	mux.HandleFunc("POST /api/machine-types", partHandler.CreateMachineType)

	authMiddleware := middleware.NewAuthMiddleware(authService)
	adminOnly := authMiddleware.RequireRole(models.RoleAdmin)

	mux.HandleFunc("GET /api/users", userHandler.List)
	mux.Handle("POST /api/users", adminOnly(http.HandlerFunc(userHandler.Create)))
	mux.Handle("PUT /api/users/{id}", adminOnly(http.HandlerFunc(userHandler.Update)))
	mux.Handle("DELETE /api/users/{id}", adminOnly(http.HandlerFunc(userHandler.Delete)))

	rateLimiter := middleware.NewRateLimitMiddleware()

	handler := rateLimiter.RateLimit(300, 60)(authMiddleware.Authenticate(mux))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.WithField("port", port).Info("HTTP server listening")
	log.Fatal(http.ListenAndServe(":"+port, handler))
}

// seedAdmin creates the initial admin account on an empty user store so
// a fresh deployment is reachable.
func seedAdmin(ctx context.Context, store db.Store, authService *auth.Service) error {
	users, err := store.FindUsers(ctx)
	if err != nil {
		return err
	}
	if len(users) > 0 {
		return nil
	}

	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "admin123"
	}
	hash, err := authService.HashPassword(password)
	if err != nil {
		return err
	}

	now := time.Now()
	id, err := store.InsertUser(ctx, models.User{
		Name:         "Admin",
		Email:        "admin@gurutech.in",
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		Status:       models.UserActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return err
	}
	log.WithField("user_id", id).Info("Seeded initial admin account")
	return nil
}
