package server

import "net/http"

func (a *App) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/register", a.handleRegister)
	mux.HandleFunc("POST /api/auth/login", a.handleLogin)

	mux.Handle("GET /api/users/me", a.requireAuth(a.handleGetMe))
	mux.Handle("PUT /api/users/me", a.requireAuth(a.handleUpdateMe))
	mux.Handle("DELETE /api/users/me", a.requireAuth(a.handleDeleteMe))

	mux.Handle("GET /api/conversations", a.requireAuth(a.handleListConversations))
	mux.Handle("POST /api/conversations/start", a.requireAuth(a.handleStartConversation))
	mux.Handle("POST /api/conversations/group", a.requireAuth(a.handleCreateGroup))
	mux.Handle("POST /api/conversations/send", a.requireAuth(a.handleSendMessage))
	mux.Handle("POST /api/conversations/send-image", a.requireAuth(a.handleSendImage))
	mux.Handle("GET /api/conversations/{id}/messages", a.requireAuth(a.handleListMessages))
	mux.Handle("PUT /api/conversations/{id}/read", a.requireAuth(a.handleMarkConversationRead))
	mux.Handle("DELETE /api/conversations/{id}", a.requireAuth(a.handleDeleteConversation))

	// Message routes live under their own prefix: nesting them under
	// /api/conversations/message/{id} is ambiguous against
	// /api/conversations/{id}/read and ServeMux refuses to register both.
	mux.Handle("PUT /api/messages/{id}/read", a.requireAuth(a.handleMarkMessageRead))
	mux.Handle("PUT /api/messages/{id}", a.requireAuth(a.handleEditMessage))
	mux.Handle("DELETE /api/messages/{id}", a.requireAuth(a.handleDeleteMessage))

	mux.Handle("POST /api/posts", a.requireAuth(a.handleCreatePost))
	mux.Handle("GET /api/posts/feed", a.requireAuth(a.handleFeed))
	mux.Handle("GET /api/posts/{id}", a.requireAuth(a.handleGetPost))
	mux.Handle("DELETE /api/posts/{id}", a.requireAuth(a.handleDeletePost))
	mux.Handle("POST /api/posts/{id}/like", a.requireAuth(a.handleToggleLike))
	mux.Handle("POST /api/posts/{id}/comments", a.requireAuth(a.handleCreateComment))
	mux.Handle("DELETE /api/posts/{id}/comments/{commentId}", a.requireAuth(a.handleDeleteComment))

	mux.Handle("POST /api/friends/request", a.requireAuth(a.handleFriendRequest))
	mux.Handle("PUT /api/friends/{id}/accept", a.requireAuth(a.handleAcceptFriend))
	mux.Handle("DELETE /api/friends/{id}", a.requireAuth(a.handleRemoveFriend))
	mux.Handle("GET /api/friends", a.requireAuth(a.handleListFriends))
	mux.Handle("GET /api/friends/requests", a.requireAuth(a.handleListFriendRequests))

	uploads := http.FileServer(http.Dir(a.cfg.Uploads.Dir))
	mux.Handle("GET /uploads/", http.StripPrefix("/uploads/", uploads))

	return mux
}
