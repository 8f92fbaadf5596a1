package post

import (
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"strconv"
	"time"

	"microblog/cache"
	"microblog/comment"
	"microblog/errs"
	"microblog/follower"
	"microblog/group"
	"microblog/pagination"
	"microblog/user"
	"microblog/web"
)

// IndexCacheKeyPrefix keys the cached global feed fragments; the requested
// page number is appended per page. Only the viewer-independent feed (post
// list plus pager) is cached, never the per-viewer chrome around it.
const IndexCacheKeyPrefix = "index_page"

// Handler serves every post-centric page: the four feeds, the post detail
// view and the create/edit/delete/comment mutations.
type Handler struct {
	Posts    *Service
	Groups   *group.Service
	Users    *user.Service
	Follows  *follower.Service
	Comments *comment.Service
	Cache    cache.PageCache
	CacheTTL time.Duration
	Render   *web.Renderer
}

// Index serves the global feed. The feed fragment is cached per requested
// page number for CacheTTL and shared across viewers; the layout around it is
// rendered fresh for each request. Post writes do not invalidate the cache,
// so a freshly deleted post can linger on the page until the entry expires.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request, actor *user.User) {
	if r.URL.Path != "/" {
		h.Render.NotFound(w)
		return
	}

	ctx := r.Context()
	pageParam := r.URL.Query().Get("page")
	key := fmt.Sprintf("%s:%d", IndexCacheKeyPrefix, pagination.Requested(pageParam))

	feed, ok := h.Cache.Get(ctx, key)
	if !ok {
		total, err := h.Posts.CountAll()
		if err != nil {
			h.Render.ServerError(w, err)
			return
		}
		page := pagination.Paginate(total, pageParam)

		posts, err := h.Posts.All(page.Size, page.Offset)
		if err != nil {
			h.Render.ServerError(w, err)
			return
		}

		feed, err = h.Render.Fragment("post_feed", web.TemplateData{
			"Posts": posts,
			"Page":  page,
		})
		if err != nil {
			h.Render.ServerError(w, err)
			return
		}
		h.Cache.Set(ctx, key, feed, h.CacheTTL)
	}

	h.Render.HTML(w, r, "index.html", web.TemplateData{
		"Title":       "Latest posts",
		"CurrentUser": actor,
		"Feed":        template.HTML(feed),
	})
}

// GroupFeed serves /group/{slug}/: the posts filed under one group.
func (h *Handler) GroupFeed(w http.ResponseWriter, r *http.Request, actor *user.User, slug string) {
	g, err := h.Groups.BySlug(slug)
	if errors.Is(err, errs.ErrNotFound) {
		h.Render.NotFound(w)
		return
	} else if err != nil {
		h.Render.ServerError(w, err)
		return
	}

	total, err := h.Posts.CountByGroup(g.ID)
	if err != nil {
		h.Render.ServerError(w, err)
		return
	}
	page := pagination.Paginate(total, r.URL.Query().Get("page"))

	posts, err := h.Posts.ByGroup(g.ID, page.Size, page.Offset)
	if err != nil {
		h.Render.ServerError(w, err)
		return
	}

	h.Render.HTML(w, r, "group_list.html", web.TemplateData{
		"Title":       g.Title,
		"CurrentUser": actor,
		"Group":       g,
		"Posts":       posts,
		"Page":        page,
	})
}

// ProfileFeed serves /profile/{username}/: the author's posts plus whether
// the current viewer follows them.
func (h *Handler) ProfileFeed(w http.ResponseWriter, r *http.Request, actor *user.User, username string) {
	author, err := h.Users.ByUsername(username)
	if errors.Is(err, errs.ErrNotFound) {
		h.Render.NotFound(w)
		return
	} else if err != nil {
		h.Render.ServerError(w, err)
		return
	}

	total, err := h.Posts.CountByAuthor(author.ID)
	if err != nil {
		h.Render.ServerError(w, err)
		return
	}
	page := pagination.Paginate(total, r.URL.Query().Get("page"))

	posts, err := h.Posts.ByAuthor(author.ID, page.Size, page.Offset)
	if err != nil {
		h.Render.ServerError(w, err)
		return
	}

	following := false
	if actor != nil {
		following, err = h.Follows.IsFollowing(actor.ID, author.ID)
		if err != nil {
			h.Render.ServerError(w, err)
			return
		}
	}

	followers, err := h.Follows.CountFollowers(author.ID)
	if err != nil {
		h.Render.ServerError(w, err)
		return
	}

	h.Render.HTML(w, r, "profile.html", web.TemplateData{
		"Title":       author.Username,
		"CurrentUser": actor,
		"Author":      author,
		"Following":   following,
		"Followers":   followers,
		"PostsCount":  total,
		"Posts":       posts,
		"Page":        page,
	})
}

// FollowFeed serves /follow/: posts by every author the actor follows.
func (h *Handler) FollowFeed(w http.ResponseWriter, r *http.Request, actor *user.User) {
	total, err := h.Posts.CountFollowed(actor.ID)
	if err != nil {
		h.Render.ServerError(w, err)
		return
	}
	page := pagination.Paginate(total, r.URL.Query().Get("page"))

	posts, err := h.Posts.Followed(actor.ID, page.Size, page.Offset)
	if err != nil {
		h.Render.ServerError(w, err)
		return
	}

	h.Render.HTML(w, r, "follow.html", web.TemplateData{
		"Title":       "Your feed",
		"CurrentUser": actor,
		"Posts":       posts,
		"Page":        page,
	})
}

// Detail serves /posts/{id}/ with the post's comments and, for logged-in
// viewers, the comment form.
func (h *Handler) Detail(w http.ResponseWriter, r *http.Request, actor *user.User, id int) {
	h.renderDetail(w, r, actor, id, "")
}

func (h *Handler) renderDetail(w http.ResponseWriter, r *http.Request, actor *user.User, id int, formError string) {
	p, err := h.Posts.ByID(id)
	if errors.Is(err, errs.ErrNotFound) {
		h.Render.NotFound(w)
		return
	} else if err != nil {
		h.Render.ServerError(w, err)
		return
	}

	comments, err := h.Comments.ByPost(id)
	if err != nil {
		h.Render.ServerError(w, err)
		return
	}

	count, err := h.Comments.CountByPost(id)
	if err != nil {
		h.Render.ServerError(w, err)
		return
	}

	h.Render.HTML(w, r, "post_detail.html", web.TemplateData{
		"Title":         "Post by " + p.AuthorUsername,
		"CurrentUser":   actor,
		"Post":          p,
		"Comments":      comments,
		"CommentsCount": count,
		"FormError":     formError,
	})
}

// Create serves the new-post form and publishes on POST. Success redirects to
// the author's profile; a validation failure re-renders the form.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request, actor *user.User) {
	if r.Method == http.MethodGet {
		h.renderPostForm(w, r, actor, web.TemplateData{"Title": "New post"})
		return
	}
	if r.Method != http.MethodPost {
		h.Render.MethodNotAllowed(w, []string{http.MethodGet, http.MethodPost})
		return
	}

	text := r.FormValue("text")
	groupID, err := parseGroupField(r)
	if ve, vok := errs.AsValidation(err); vok {
		h.renderPostForm(w, r, actor, web.TemplateData{
			"Title":     "New post",
			"FormError": ve.Message,
			"FormData":  map[string]string{"text": text},
		})
		return
	}

	image, err := SaveImage(r, "image")
	if err != nil {
		log.Printf("[Posts] Image upload failed: %v", err)
		h.Render.ServerError(w, err)
		return
	}

	p, err := h.Posts.Create(actor, text, groupID, image)
	if ve, vok := errs.AsValidation(err); vok {
		h.renderPostForm(w, r, actor, web.TemplateData{
			"Title":     "New post",
			"FormError": ve.Message,
			"FormData":  map[string]string{"text": text},
		})
		return
	} else if err != nil {
		log.Printf("[Posts] Create failed: %v", err)
		h.Render.ServerError(w, err)
		return
	}

	log.Printf("[Posts] User %d created post %d", actor.ID, p.ID)
	http.Redirect(w, r, "/profile/"+actor.Username+"/", http.StatusSeeOther)
}

// Edit serves /posts/{id}/edit/. Anyone but the author is bounced to the
// read-only post view without touching the post.
func (h *Handler) Edit(w http.ResponseWriter, r *http.Request, actor *user.User, id int) {
	p, err := h.Posts.ByID(id)
	if errors.Is(err, errs.ErrNotFound) {
		h.Render.NotFound(w)
		return
	} else if err != nil {
		h.Render.ServerError(w, err)
		return
	}

	postURL := fmt.Sprintf("/posts/%d/", id)
	if p.AuthorID != actor.ID {
		http.Redirect(w, r, postURL, http.StatusSeeOther)
		return
	}

	if r.Method == http.MethodGet {
		formData := map[string]string{"text": p.Text}
		if p.GroupID != nil {
			formData["group"] = strconv.Itoa(*p.GroupID)
		}
		h.renderPostForm(w, r, actor, web.TemplateData{
			"Title":    "Edit post",
			"IsEdit":   true,
			"Post":     p,
			"FormData": formData,
		})
		return
	}
	if r.Method != http.MethodPost {
		h.Render.MethodNotAllowed(w, []string{http.MethodGet, http.MethodPost})
		return
	}

	text := r.FormValue("text")
	groupID, err := parseGroupField(r)
	if ve, vok := errs.AsValidation(err); vok {
		h.renderPostForm(w, r, actor, web.TemplateData{
			"Title":     "Edit post",
			"IsEdit":    true,
			"Post":      p,
			"FormError": ve.Message,
			"FormData":  map[string]string{"text": text},
		})
		return
	}

	image, err := SaveImage(r, "image")
	if err != nil {
		log.Printf("[Posts] Image upload failed: %v", err)
		h.Render.ServerError(w, err)
		return
	}

	if _, err := h.Posts.Edit(actor, id, text, groupID, image); err != nil {
		if errors.Is(err, errs.ErrForbidden) {
			http.Redirect(w, r, postURL, http.StatusSeeOther)
			return
		}
		if ve, vok := errs.AsValidation(err); vok {
			h.renderPostForm(w, r, actor, web.TemplateData{
				"Title":     "Edit post",
				"IsEdit":    true,
				"Post":      p,
				"FormError": ve.Message,
				"FormData":  map[string]string{"text": text},
			})
			return
		}
		log.Printf("[Posts] Edit failed: %v", err)
		h.Render.ServerError(w, err)
		return
	}

	log.Printf("[Posts] User %d edited post %d", actor.ID, id)
	http.Redirect(w, r, postURL, http.StatusSeeOther)
}

// Delete handles POST /posts/{id}/delete/ for the author or an admin.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request, actor *user.User, id int) {
	if r.Method != http.MethodPost {
		h.Render.MethodNotAllowed(w, []string{http.MethodPost})
		return
	}

	err := h.Posts.Delete(actor, id)
	if errors.Is(err, errs.ErrNotFound) {
		h.Render.NotFound(w)
		return
	} else if errors.Is(err, errs.ErrForbidden) {
		http.Redirect(w, r, fmt.Sprintf("/posts/%d/", id), http.StatusSeeOther)
		return
	} else if err != nil {
		log.Printf("[Posts] Delete failed: %v", err)
		h.Render.ServerError(w, err)
		return
	}

	log.Printf("[Posts] User %d deleted post %d", actor.ID, id)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// AddComment handles POST /posts/{id}/comment/. An empty comment re-renders
// the post page with the field error; success redirects back to the post.
func (h *Handler) AddComment(w http.ResponseWriter, r *http.Request, actor *user.User, id int) {
	if r.Method != http.MethodPost {
		h.Render.MethodNotAllowed(w, []string{http.MethodPost})
		return
	}

	_, err := h.Comments.Add(actor, id, r.FormValue("text"))
	if errors.Is(err, errs.ErrNotFound) {
		h.Render.NotFound(w)
		return
	} else if ve, ok := errs.AsValidation(err); ok {
		h.renderDetail(w, r, actor, id, ve.Message)
		return
	} else if err != nil {
		log.Printf("[Comments] Add failed: %v", err)
		h.Render.ServerError(w, err)
		return
	}

	log.Printf("[Comments] User %d commented on post %d", actor.ID, id)
	http.Redirect(w, r, fmt.Sprintf("/posts/%d/", id), http.StatusSeeOther)
}

func (h *Handler) renderPostForm(w http.ResponseWriter, r *http.Request, actor *user.User, data web.TemplateData) {
	groups, err := h.Groups.All()
	if err != nil {
		h.Render.ServerError(w, err)
		return
	}
	data["CurrentUser"] = actor
	data["Groups"] = groups
	h.Render.HTML(w, r, "create_post.html", data)
}

// parseGroupField reads the optional group select. A malformed value is a
// ValidationError so the callers re-render their own form.
func parseGroupField(r *http.Request) (*int, error) {
	groupStr := r.FormValue("group")
	if groupStr == "" {
		return nil, nil
	}
	gid, err := strconv.Atoi(groupStr)
	if err != nil {
		return nil, errs.Validation("group", "Invalid group")
	}
	return &gid, nil
}
