package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/memoriesapp/memories-service/internal/cache"
	"github.com/memoriesapp/memories-service/internal/config"
	"github.com/memoriesapp/memories-service/internal/events"
	"github.com/memoriesapp/memories-service/internal/http/handlers/auth"
	"github.com/memoriesapp/memories-service/internal/http/handlers/media"
	"github.com/memoriesapp/memories-service/internal/http/handlers/posts"
	"github.com/memoriesapp/memories-service/internal/http/handlers/users"
	wsHandler "github.com/memoriesapp/memories-service/internal/http/handlers/websocket"
	"github.com/memoriesapp/memories-service/internal/http/middleware"
	"github.com/memoriesapp/memories-service/internal/mail"
	mediaService "github.com/memoriesapp/memories-service/internal/services/media"
	"github.com/memoriesapp/memories-service/internal/social"
	"github.com/memoriesapp/memories-service/internal/storage/mongodb"
	"github.com/memoriesapp/memories-service/internal/token"
	"github.com/memoriesapp/memories-service/internal/websocket"
)

func main() {
	// load config
	cfg := config.MustLoad()

	// database setup
	storage, err := mongodb.NewMongo(context.Background(), cfg)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	slog.Info("Connected to MongoDB")

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	slog.Info("Connected to Redis")

	// core services
	issuer := token.NewIssuer(storage)
	mailer := mail.NewSMTPMailer(cfg.SMTP)
	graph := social.NewGraph(storage)
	friendCache := cache.NewFriendCache(storage, redisClient)

	mediaSvc, err := mediaService.NewService(cfg)
	if err != nil {
		log.Fatal("Failed to initialize media service:", err)
	}
	slog.Info("Connected to MinIO")

	// real-time events
	hub := websocket.NewHub()
	go hub.Run()
	publisher := events.NewEventPublisher(hub)

	// rate limiting
	rateLimits := middleware.NewRateLimitConfig(redisClient)

	authRequired := middleware.AuthMiddleware(cfg.JWTSecret)

	// setup server
	router := http.NewServeMux()

	router.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Memories API"))
	})

	// auth
	router.HandleFunc("POST /register", auth.Register(storage, issuer, mailer, cfg.AppURL))
	router.HandleFunc("POST /login", auth.Login(storage, cfg.JWTSecret))
	router.HandleFunc("GET /users/verify/{userId}/{token}", auth.VerifyEmail(issuer))
	router.HandleFunc("POST /users/request-passwordreset", auth.RequestPasswordReset(storage, issuer, mailer, cfg.AppURL))
	router.HandleFunc("GET /users/reset-password/{userId}/{token}", auth.CheckResetLink(issuer))
	router.HandleFunc("POST /users/reset-password", auth.ChangePassword(storage, issuer))

	// users and friends
	router.Handle("GET /users", authRequired(users.GetUser(storage)))
	router.Handle("GET /users/{id}", authRequired(users.GetUser(storage)))
	router.Handle("PUT /users", authRequired(users.UpdateUser(storage, cfg.JWTSecret)))
	router.Handle("POST /users/friend-request", authRequired(
		rateLimits.RateLimitedHandler("friend_requests", users.FriendRequest(graph, publisher))))
	router.Handle("GET /users/friend-request", authRequired(users.ListFriendRequests(storage)))
	router.Handle("POST /users/accept-request", authRequired(users.RespondRequest(storage, graph, publisher, friendCache)))
	router.Handle("POST /users/profile-view", authRequired(users.ProfileView(storage)))
	router.Handle("GET /users/suggested-friends", authRequired(users.SuggestedFriends(storage)))

	// posts, comments and likes
	router.Handle("POST /posts", authRequired(
		rateLimits.RateLimitedHandler("posts", posts.Create(storage))))
	router.Handle("GET /posts", authRequired(posts.Feed(storage, friendCache)))
	router.Handle("GET /posts/{id}", authRequired(posts.GetPost(storage)))
	router.Handle("DELETE /posts/{id}", authRequired(posts.Delete(storage)))
	router.Handle("GET /posts/get-user-post/{id}", authRequired(posts.UserPosts(storage)))
	router.Handle("POST /posts/like/{id}", authRequired(
		rateLimits.RateLimitedHandler("likes", posts.LikePost(storage, publisher))))
	router.Handle("POST /posts/comment/{id}", authRequired(
		rateLimits.RateLimitedHandler("comments", posts.Comment(storage, publisher))))
	router.Handle("GET /posts/comments/{id}", authRequired(posts.GetComments(storage)))
	router.Handle("POST /posts/like-comment/{id}", authRequired(
		rateLimits.RateLimitedHandler("likes", posts.LikeComment(storage))))
	router.Handle("POST /posts/like-comment/{id}/{rid}", authRequired(
		rateLimits.RateLimitedHandler("likes", posts.LikeReply(storage))))
	router.Handle("POST /posts/reply/{id}", authRequired(
		rateLimits.RateLimitedHandler("comments", posts.Reply(storage))))

	// media
	mediaHandlers := media.NewMediaHandlers(mediaSvc)
	router.Handle("POST /media/upload-url", authRequired(mediaHandlers.GenerateUploadURL()))
	router.Handle("GET /media/{objectKey}/info", authRequired(mediaHandlers.GetPhotoInfo()))
	router.Handle("GET /media/{objectKey}/download-url", authRequired(mediaHandlers.GenerateDownloadURL()))
	router.Handle("DELETE /media/{objectKey}", authRequired(mediaHandlers.DeletePhoto()))

	// websocket
	router.HandleFunc("GET /ws", wsHandler.WebSocketHandler(hub, cfg.JWTSecret))

	server := http.Server{
		Addr:    cfg.HTTPServer.Address,
		Handler: router,
	}

	log.Println("server started on", cfg.HTTPServer.Address)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %s", err)
		}
	}()

	<-done

	slog.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("failed to gracefully shutdown server", slog.String("error", err.Error()))
	}
	if err := storage.Close(ctx); err != nil {
		slog.Error("failed to close mongo connection", slog.String("error", err.Error()))
	}

	slog.Info("Server stopped")
}
