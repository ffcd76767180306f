package request

type SubmitJobsRequest struct {
	Keywords []string `json:"keywords"`
	Force    bool     `json:"force"`
}
