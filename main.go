package main

import (
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"motion-director/canvas"
	"motion-director/handlers/api/exports"
	"motion-director/handlers/api/paths"
	"motion-director/handlers/api/projects"
	"motion-director/handlers/auth"
	"motion-director/handlers/websocket"
	authMiddleware "motion-director/middleware"
	"motion-director/stores"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	socketio "github.com/zishang520/socket.io/v2/socket"
)

func setupRouter(store stores.Store, hub *canvas.Hub) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Logger)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Content-Length", "X-CSRF-Token", "Token", "session", "Origin", "Host", "Connection", "Accept-Encoding", "Accept-Language", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	r.Route("/api/v2", func(r chi.Router) {
		// Project blobs are per-user, protected by JWT auth.
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.AuthJWT)
			r.Route("/projects", func(r chi.Router) {
				r.Get("/", projects.HandleList(store))
				r.Route("/{name}", func(r chi.Router) {
					r.Get("/", projects.HandleGet(store))
					r.Put("/", projects.HandleSave(store))
					r.Delete("/", projects.HandleDelete(store))
				})
			})
		})

		r.Route("/documents/{id}/paths", func(r chi.Router) {
			r.Post("/", paths.HandleDraw(hub))
			r.Delete("/", paths.HandleClear(hub))
			r.Get("/control-point", paths.HandleGetControlPoint(hub))
		})

		// Anonymous export sharing
		r.Post("/exports", exports.HandleCreate(store))
		r.Get("/exports/{id}", exports.HandleGet(store))
	})

	r.Route("/auth", func(r chi.Router) {
		r.Get("/login", auth.HandleLogin)
		r.Get("/callback", auth.HandleCallback)
	})

	return r
}

func waitForShutdown(ioo *socketio.Server) {
	exit := make(chan struct{})
	SignalC := make(chan os.Signal, 1)

	signal.Notify(SignalC, os.Interrupt, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		for s := range SignalC {
			switch s {
			case os.Interrupt, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT:
				close(exit)
				return
			}
		}
	}()

	<-exit
	logrus.Info("Shutting down...")
	ioo.Close(nil)
	os.Exit(0)
}

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found")
	}

	listenAddress := flag.String("listen", ":3002", "The address to listen on.")
	logLevel := flag.String("loglevel", "info", "The log level (debug, info, warn, error).")
	flag.Parse()

	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	auth.InitAuth()
	store := stores.GetStore()
	hub := canvas.NewHub()

	r := setupRouter(store, hub)

	ioo := websocket.SetupSocketIO(hub, store)
	r.Mount("/socket.io/", ioo.ServeHandler(nil))

	logrus.WithField("addr", *listenAddress).Info("starting server")
	go func() {
		if err := http.ListenAndServe(*listenAddress, r); err != nil {
			logrus.WithField("event", "start server").Fatal(err)
		}
	}()

	logrus.Debug("Server is running in the background")
	waitForShutdown(ioo)
}
