package dto

// ExportOrderResponse is returned by POST /orders/:id/export. DocumentID is
// empty when the document type is "nosync".
type ExportOrderResponse struct {
	OrderID    string `json:"order_id"`
	DocumentID string `json:"document_id"`
}

// ChangeStatusRequest is the body of POST /orders/:id/status
type ChangeStatusRequest struct {
	Status string `json:"status" binding:"required,max=30"`
}

// ChangeStatusResponse reports whether the status actually changed
type ChangeStatusResponse struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
	Changed bool   `json:"changed"`
}
