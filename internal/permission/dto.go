package permission

// CreatePermissionDTO is the transport shape for creating a permission.
// Code is always derived from Module and Action.
type CreatePermissionDTO struct {
	Name        string `json:"name"`
	Module      string `json:"module"`
	Action      string `json:"action"`
	Resource    string `json:"resource,omitempty"`
	Description string `json:"description,omitempty"`
	Level       int    `json:"level,omitempty"`
	Sort        int    `json:"sort,omitempty"`
	ParentID    *int64 `json:"parent_id,omitempty"`
}

// ValidationError represents a simple validation error from DTO validation.
type ValidationError struct {
	Msg string
}

func (v ValidationError) Error() string { return v.Msg }

func (d CreatePermissionDTO) Validate() error {
	if d.Name == "" {
		return ValidationError{Msg: "name is required"}
	}
	if d.Module == "" {
		return ValidationError{Msg: "module is required"}
	}
	if d.Action == "" {
		return ValidationError{Msg: "action is required"}
	}
	if !ValidCode(GenerateCode(d.Module, d.Action)) {
		return ValidationError{Msg: "module and action must form a valid module:action code"}
	}
	return nil
}

// UpdatePermissionDTO updates a permission; nil fields are left unchanged.
// A ParentID of 0 detaches the permission from its parent.
type UpdatePermissionDTO struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Resource    *string `json:"resource,omitempty"`
	Status      *string `json:"status,omitempty"`
	Level       *int    `json:"level,omitempty"`
	Sort        *int    `json:"sort,omitempty"`
	ParentID    *int64  `json:"parent_id,omitempty"`
	IsSystem    *bool   `json:"is_system,omitempty"`
}

type ListPermissionsQuery struct {
	Page   int    `json:"page"`
	Limit  int    `json:"limit"`
	Module string `json:"module,omitempty"`
	Status string `json:"status,omitempty"`
	Name   string `json:"name,omitempty"`
}

func (q *ListPermissionsQuery) Normalize() {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 || q.Limit > 100 {
		q.Limit = 10
	}
}
