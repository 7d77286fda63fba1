package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"socialnet/internal/handler"
	"socialnet/internal/httputil"
	authmw "socialnet/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	AuthHandler         *handler.AuthHandler
	UserHandler         *handler.UserHandler
	FollowHandler       *handler.FollowHandler
	PostHandler         *handler.PostHandler
	CommentHandler      *handler.CommentHandler
	LikeHandler         *handler.LikeHandler
	TimelineHandler     *handler.TimelineHandler
	NotificationHandler *handler.NotificationHandler
	JWTSecret           string
}

// NewRouter creates and configures a new Chi router. Everything except
// registration, login, refresh, and the health check requires a valid token:
// there are no anonymous reads.
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	// Health check endpoint (for deployment/monitoring)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Public routes - no authentication required
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", cfg.AuthHandler.Register)
		r.Post("/login", cfg.AuthHandler.Login)
		r.Post("/refresh", cfg.AuthHandler.Refresh)
	})

	// Protected routes - everything else requires authentication
	r.Group(func(r chi.Router) {
		r.Use(authmw.AuthMiddleware(cfg.JWTSecret))

		r.Post("/auth/logout", cfg.AuthHandler.Logout)
		r.Post("/auth/logout-all", cfg.AuthHandler.LogoutAll)

		// Current user
		r.Get("/me", cfg.AuthHandler.Me)
		r.Patch("/me", cfg.UserHandler.UpdateProfile)
		r.Delete("/me", cfg.UserHandler.DeleteAccount)

		// Users and the social graph
		r.Route("/users", func(r chi.Router) {
			r.Get("/search", cfg.UserHandler.Search)
			r.Get("/{id}", cfg.UserHandler.GetProfile)
			r.Patch("/{id}", cfg.UserHandler.UpdateUser)
			r.Delete("/{id}", cfg.UserHandler.DeleteUser)
			r.Get("/{id}/followers", cfg.FollowHandler.GetFollowers)
			r.Get("/{id}/following", cfg.FollowHandler.GetFollowing)
			r.Post("/{id}/follow", cfg.FollowHandler.Follow)
			r.Delete("/{id}/follow", cfg.FollowHandler.Unfollow)
		})

		// Posts, likes, and comments
		r.Route("/posts", func(r chi.Router) {
			r.Post("/", cfg.PostHandler.Create)
			r.Get("/", cfg.PostHandler.List)
			r.Get("/{id}", cfg.PostHandler.GetByID)
			r.Patch("/{id}", cfg.PostHandler.Update)
			r.Delete("/{id}", cfg.PostHandler.Delete)
			r.Post("/{id}/like", cfg.PostHandler.Like)
			r.Delete("/{id}/like", cfg.PostHandler.Unlike)
			r.Get("/{id}/likers", cfg.PostHandler.GetLikers)
			r.Post("/{id}/comments", cfg.CommentHandler.Create)
			r.Get("/{id}/comments", cfg.CommentHandler.GetByPostID)
		})

		r.Route("/comments", func(r chi.Router) {
			r.Get("/", cfg.CommentHandler.List)
			r.Get("/{id}", cfg.CommentHandler.GetByID)
			r.Patch("/{id}", cfg.CommentHandler.Update)
			r.Delete("/{id}", cfg.CommentHandler.Delete)
		})

		// Raw relationship records
		r.Route("/likes", func(r chi.Router) {
			r.Get("/", cfg.LikeHandler.List)
			r.Get("/{id}", cfg.LikeHandler.GetByID)
			r.Delete("/{id}", cfg.LikeHandler.Delete)
		})

		r.Route("/follows", func(r chi.Router) {
			r.Get("/", cfg.FollowHandler.ListFollows)
			r.Get("/{id}", cfg.FollowHandler.GetFollowRecord)
			r.Delete("/{id}", cfg.FollowHandler.DeleteFollowRecord)
		})

		r.Route("/unfollows", func(r chi.Router) {
			r.Get("/", cfg.FollowHandler.ListUnfollows)
			r.Get("/{id}", cfg.FollowHandler.GetUnfollowRecord)
			r.Delete("/{id}", cfg.FollowHandler.DeleteUnfollowRecord)
		})

		// Home timeline
		r.Get("/timeline", cfg.TimelineHandler.GetTimeline)

		// Notifications
		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", cfg.NotificationHandler.List)
			r.Get("/unread-count", cfg.NotificationHandler.GetUnreadCount)
			r.Post("/read", cfg.NotificationHandler.MarkRead)
			r.Post("/read-all", cfg.NotificationHandler.MarkAllRead)
		})
	})

	return r
}
