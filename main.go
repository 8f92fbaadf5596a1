package main

import (
	"flag"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"microblog/cache"
	"microblog/comment"
	"microblog/follower"
	"microblog/group"
	"microblog/pkg/db/sqlite"
	"microblog/post"
	"microblog/user"
	"microblog/web"
)

func main() {
	addr := flag.String("addr", ":8088", "HTTP network address")
	dsn := flag.String("dsn", "./microblog.db", "Path to SQLite3 database file")
	migrationsDir := flag.String("migrations-dir", "pkg/db/migrations/sqlite", "Path to schema migrations")
	htmlDir := flag.String("html-dir", "./ui/html", "Path to HTML templates")
	mediaDir := flag.String("media-dir", "./uploads", "Path to uploaded media")
	redisAddr := flag.String("redis-addr", "", "Redis address for the page cache (in-memory when empty)")
	cacheTTL := flag.Duration("cache-ttl", 20*time.Second, "TTL for the cached global feed")
	secret := flag.String("session-secret", "change-me-in-production", "Key for signing session tokens")
	flag.Parse()

	if err := sqlite.ApplyMigrations(*dsn, *migrationsDir); err != nil {
		log.Fatal(err)
	}

	db, err := sqlite.Connect(*dsn)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	var pageCache cache.PageCache = cache.NewMemory()
	if *redisAddr != "" {
		pageCache = cache.NewRedis(redis.NewClient(&redis.Options{Addr: *redisAddr}))
		log.Printf("[Main] Page cache backed by redis at %s", *redisAddr)
	}

	post.MediaDir = *mediaDir
	render := web.NewRenderer(*htmlDir)

	users := user.NewService(db)
	sessions := user.NewSessions([]byte(*secret), users)
	groups := group.NewService(db)
	posts := post.NewService(db)
	comments := comment.NewService(db)
	follows := follower.NewService(db)

	userHandler := &user.Handler{Users: users, Sessions: sessions, Render: render}
	groupHandler := &group.Handler{Groups: groups, Render: render}
	followHandler := &follower.Handler{Follows: follows, Render: render}
	postHandler := &post.Handler{
		Posts:    posts,
		Groups:   groups,
		Users:    users,
		Follows:  follows,
		Comments: comments,
		Cache:    pageCache,
		CacheTTL: *cacheTTL,
		Render:   render,
	}

	mux := http.NewServeMux()

	// Uploaded media (post images) under /media/.
	mux.Handle("/media/", http.StripPrefix("/media/", http.FileServer(http.Dir(*mediaDir))))

	mux.HandleFunc("/", sessions.WithUser(postHandler.Index))
	mux.HandleFunc("/create/", sessions.RequireAuth(postHandler.Create))
	mux.HandleFunc("/follow/", sessions.RequireAuth(postHandler.FollowFeed))

	mux.HandleFunc("/auth/signup/", sessions.RequireGuest(userHandler.Signup))
	mux.HandleFunc("/auth/login/", sessions.RequireGuest(userHandler.Login))
	mux.HandleFunc("/auth/logout/", sessions.RequireAuth(userHandler.Logout))

	mux.HandleFunc("/group/create/", sessions.RequireAuth(groupHandler.Create))

	// Dynamic routes handler
	mux.HandleFunc("/group/", handleGroupRoutes(sessions, postHandler, render))
	mux.HandleFunc("/profile/", handleProfileRoutes(sessions, postHandler, followHandler, render))
	mux.HandleFunc("/posts/", handlePostRoutes(sessions, postHandler, render))

	srv := &http.Server{
		Addr:    *addr,
		Handler: mux,

		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	log.Printf("[Main] Server running on %s", *addr)
	log.Fatal(srv.ListenAndServe())
}

// handleGroupRoutes serves /group/{slug}/ .
func handleGroupRoutes(sessions *user.Sessions, posts *post.Handler, render *web.Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		parts := pathParts(r.URL.Path, "/group/")
		if len(parts) != 1 {
			render.NotFound(w)
			return
		}
		slug := parts[0]
		sessions.WithUser(func(w http.ResponseWriter, r *http.Request, actor *user.User) {
			posts.GroupFeed(w, r, actor, slug)
		})(w, r)
	}
}

// handleProfileRoutes serves /profile/{username}/ and the follow/unfollow
// actions below it.
func handleProfileRoutes(sessions *user.Sessions, posts *post.Handler, follows *follower.Handler, render *web.Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		parts := pathParts(r.URL.Path, "/profile/")
		switch {
		case len(parts) == 1:
			username := parts[0]
			sessions.WithUser(func(w http.ResponseWriter, r *http.Request, actor *user.User) {
				posts.ProfileFeed(w, r, actor, username)
			})(w, r)
		case len(parts) == 2 && parts[1] == "follow":
			username := parts[0]
			sessions.RequireAuth(func(w http.ResponseWriter, r *http.Request, actor *user.User) {
				follows.Follow(w, r, actor, username)
			})(w, r)
		case len(parts) == 2 && parts[1] == "unfollow":
			username := parts[0]
			sessions.RequireAuth(func(w http.ResponseWriter, r *http.Request, actor *user.User) {
				follows.Unfollow(w, r, actor, username)
			})(w, r)
		default:
			render.NotFound(w)
		}
	}
}

// handlePostRoutes serves /posts/{id}/ and the edit/delete/comment actions
// below it.
func handlePostRoutes(sessions *user.Sessions, posts *post.Handler, render *web.Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		parts := pathParts(r.URL.Path, "/posts/")
		if len(parts) == 0 {
			render.NotFound(w)
			return
		}
		id, err := strconv.Atoi(parts[0])
		if err != nil {
			render.NotFound(w)
			return
		}

		switch {
		case len(parts) == 1:
			sessions.WithUser(func(w http.ResponseWriter, r *http.Request, actor *user.User) {
				posts.Detail(w, r, actor, id)
			})(w, r)
		case len(parts) == 2 && parts[1] == "edit":
			sessions.RequireAuth(func(w http.ResponseWriter, r *http.Request, actor *user.User) {
				posts.Edit(w, r, actor, id)
			})(w, r)
		case len(parts) == 2 && parts[1] == "delete":
			sessions.RequireAuth(func(w http.ResponseWriter, r *http.Request, actor *user.User) {
				posts.Delete(w, r, actor, id)
			})(w, r)
		case len(parts) == 2 && parts[1] == "comment":
			sessions.RequireAuth(func(w http.ResponseWriter, r *http.Request, actor *user.User) {
				posts.AddComment(w, r, actor, id)
			})(w, r)
		default:
			render.NotFound(w)
		}
	}
}

// pathParts splits the path remainder after prefix into its segments, with
// trailing slashes ignored: "/posts/7/edit/" -> ["7", "edit"].
func pathParts(path, prefix string) []string {
	rest := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if rest == "" {
		return nil
	}
	return strings.Split(rest, "/")
}
