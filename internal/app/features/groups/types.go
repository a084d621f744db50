// internal/app/features/groups/types.go
package groups

type createRequest struct {
	Name        string `json:"nama"`
	Description string `json:"description"`
}

type updateRequest struct {
	Name        string `json:"nama"`
	Description string `json:"description"`
}
