// internal/app/features/comments/types.go
package comments

type createRequest struct {
	Body string `json:"body"`
}

type updateRequest struct {
	Body string `json:"body"`
}
