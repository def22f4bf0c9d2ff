package actions

// Set is the structured action block the model may embed in a reply.
// Unknown keys are ignored; absent keys mean "don't".
type Set struct {
	UpdateSoul   bool   `json:"update_soul,omitempty"`
	UpdateMemory bool   `json:"update_memory,omitempty"`
	UpdateUser   bool   `json:"update_user,omitempty"`
	Content      string `json:"content,omitempty"`

	CreateIssueForCopilot bool   `json:"create_issue_for_copilot,omitempty"`
	IssueTitle            string `json:"issue_title,omitempty"`
	IssueBody             string `json:"issue_body,omitempty"`

	GenerateCode bool `json:"generate_code,omitempty"`
	MergePR      int  `json:"merge_pr,omitempty"`
}

// Empty reports whether the set requests nothing.
func (s *Set) Empty() bool {
	return s == nil || (!s.UpdateSoul && !s.UpdateMemory && !s.UpdateUser &&
		!s.CreateIssueForCopilot && !s.GenerateCode && s.MergePR == 0)
}
