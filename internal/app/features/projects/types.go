// internal/app/features/projects/types.go
package projects

type createRequest struct {
	Name        string `json:"nama"`
	Description string `json:"description"`
}

type updateRequest struct {
	Name        string `json:"nama"`
	Description string `json:"description"`
}
