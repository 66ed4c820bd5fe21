package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/openart/internal/model"
	"github.com/sakif/openart/internal/service"
)

// SocialHandler serves the edge endpoints: follows, likes, comments and
// saves. Like, comment and save routes exist once per content kind.
type SocialHandler struct {
	comments *service.CommentService
	likes    *service.LikeService
	follows  *service.FollowService
	saves    *service.SaveService
	limits   Limits
}

func NewSocialHandler(
	comments *service.CommentService,
	likes *service.LikeService,
	follows *service.FollowService,
	saves *service.SaveService,
	limits Limits,
) *SocialHandler {
	return &SocialHandler{
		comments: comments,
		likes:    likes,
		follows:  follows,
		saves:    saves,
		limits:   limits.withDefaults(),
	}
}

// addedStatus is 201 for a new edge and 200 when it already existed.
func addedStatus(created bool) int {
	if created {
		return http.StatusCreated
	}
	return http.StatusOK
}

// FollowRoutes mounts under /follows.
func (h *SocialHandler) FollowRoutes(r chi.Router) {
	r.Post("/add_follower/{accountId}", h.addFollower)
	r.Post("/remove_follower/{accountId}", h.removeFollower)
	r.Get("/get_followers/{accountId}", h.listFollowers)
	r.Get("/get_followings/{accountId}", h.listFollowings)
}

func (h *SocialHandler) addFollower(w http.ResponseWriter, r *http.Request) {
	f, created, err := h.follows.Add(r.Context(), currentUser(r).ID, chi.URLParam(r, "accountId"))
	if err != nil {
		WriteError(w, err)
		return
	}
	data := map[string]any{"_id": f.ID, "artist": f.ArtistID, "follower": f.FollowerID, "createdAt": f.CreatedAt}
	respond(w, addedStatus(created), data, "Followed successfully")
}

func (h *SocialHandler) removeFollower(w http.ResponseWriter, r *http.Request) {
	removed, err := h.follows.Remove(r.Context(), currentUser(r).ID, chi.URLParam(r, "accountId"))
	if err != nil {
		WriteError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]bool{"removed": removed}, "Unfollowed successfully")
}

func (h *SocialHandler) listFollowers(w http.ResponseWriter, r *http.Request) {
	views, err := h.follows.Followers(r.Context(), chi.URLParam(r, "accountId"))
	if err != nil {
		WriteError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"followers": views}, "Followers fetched successfully")
}

func (h *SocialHandler) listFollowings(w http.ResponseWriter, r *http.Request) {
	views, err := h.follows.Following(r.Context(), chi.URLParam(r, "accountId"))
	if err != nil {
		WriteError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"followings": views}, "Followings fetched successfully")
}

// LikeRoutes mounts under /likes.
func (h *SocialHandler) LikeRoutes(r chi.Router) {
	for _, kind := range model.ContentKinds {
		k := string(kind)
		r.Post("/add_like_to_"+k+"/{id}", h.addLike(kind))
		r.Delete("/unlike_"+k+"/{id}", h.removeLike(kind))
		r.Get("/get_likes_of_"+k+"/{id}", h.listLikes(kind))
	}
}

func (h *SocialHandler) addLike(kind model.ContentKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := target(r, kind)
		if err != nil {
			WriteError(w, err)
			return
		}
		l, created, err := h.likes.Add(r.Context(), currentUser(r).ID, t)
		if err != nil {
			WriteError(w, err)
			return
		}
		data := map[string]any{"_id": l.ID, "likedBy": l.OwnerID, string(kind): t.ID, "createdAt": l.CreatedAt}
		respond(w, addedStatus(created), data, kind.Label()+" liked successfully")
	}
}

func (h *SocialHandler) removeLike(kind model.ContentKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := target(r, kind)
		if err != nil {
			WriteError(w, err)
			return
		}
		removed, err := h.likes.Remove(r.Context(), currentUser(r).ID, t)
		if err != nil {
			WriteError(w, err)
			return
		}
		respond(w, http.StatusOK, map[string]bool{"removed": removed}, kind.Label()+" unliked successfully")
	}
}

func (h *SocialHandler) listLikes(kind model.ContentKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := target(r, kind)
		if err != nil {
			WriteError(w, err)
			return
		}
		views, err := h.likes.List(r.Context(), t)
		if err != nil {
			WriteError(w, err)
			return
		}
		respond(w, http.StatusOK, map[string]any{"likes": views}, "Likes fetched successfully")
	}
}

// CommentRoutes mounts under /comments.
func (h *SocialHandler) CommentRoutes(r chi.Router) {
	for _, kind := range model.ContentKinds {
		k := string(kind)
		r.Post("/add_comment_to_"+k+"/{id}", h.addComment(kind))
		r.Get("/get_comments_of_"+k+"/{id}", h.listComments(kind))
	}
	r.Delete("/delete_comment/{commentId}", h.deleteComment)
}

func (h *SocialHandler) addComment(kind model.ContentKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := target(r, kind)
		if err != nil {
			WriteError(w, err)
			return
		}
		var in service.CommentInput
		if err := decodeJSON(w, r, h.limits.MaxBodyBytes, &in); err != nil {
			WriteError(w, err)
			return
		}
		c, err := h.comments.Add(r.Context(), currentUser(r).ID, t, in)
		if err != nil {
			WriteError(w, err)
			return
		}
		data := map[string]any{
			"_id":       c.ID,
			"content":   c.Content,
			"owner":     c.OwnerID,
			"createdAt": c.CreatedAt,
			"updatedAt": c.UpdatedAt,
		}
		data[string(kind)] = t.ID
		respond(w, http.StatusCreated, data, "Comment added successfully")
	}
}

func (h *SocialHandler) listComments(kind model.ContentKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := target(r, kind)
		if err != nil {
			WriteError(w, err)
			return
		}
		views, err := h.comments.List(r.Context(), currentUser(r).ID, t)
		if err != nil {
			WriteError(w, err)
			return
		}
		respond(w, http.StatusOK, map[string]any{"comments": views}, "Comments fetched successfully")
	}
}

func (h *SocialHandler) deleteComment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "commentId")
	if err := h.comments.Delete(r.Context(), currentUser(r).ID, id); err != nil {
		WriteError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]string{"_id": id}, "Comment deleted successfully")
}

// SaveRoutes returns the routes of /saved_<kind>s.
func (h *SocialHandler) SaveRoutes(kind model.ContentKind) func(chi.Router) {
	k := string(kind)
	return func(r chi.Router) {
		r.Post("/save_"+k+"/{id}", h.addSave(kind))
		r.Delete("/unsave_"+k+"/{id}", h.removeSave(kind))
		r.Get("/get_saved_"+k+"s", h.listSaves(kind))
	}
}

func (h *SocialHandler) addSave(kind model.ContentKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := target(r, kind)
		if err != nil {
			WriteError(w, err)
			return
		}
		sv, created, err := h.saves.Add(r.Context(), currentUser(r).ID, t)
		if err != nil {
			WriteError(w, err)
			return
		}
		data := map[string]any{"_id": sv.ID, "owner": sv.OwnerID, string(kind): t.ID, "createdAt": sv.CreatedAt}
		respond(w, addedStatus(created), data, kind.Label()+" saved successfully")
	}
}

func (h *SocialHandler) removeSave(kind model.ContentKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := target(r, kind)
		if err != nil {
			WriteError(w, err)
			return
		}
		removed, err := h.saves.Remove(r.Context(), currentUser(r).ID, t)
		if err != nil {
			WriteError(w, err)
			return
		}
		respond(w, http.StatusOK, map[string]bool{"removed": removed}, kind.Label()+" unsaved successfully")
	}
}

func (h *SocialHandler) listSaves(kind model.ContentKind) http.HandlerFunc {
	key := "saved" + kind.Label() + "s"
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := h.saves.List(r.Context(), currentUser(r).ID, kind)
		if err != nil {
			WriteError(w, err)
			return
		}
		respond(w, http.StatusOK, map[string]any{key: items}, "Saved "+string(kind)+"s fetched successfully")
	}
}
