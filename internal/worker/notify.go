package worker

// PDFExportNotifyMessage is the WebSocket message relayed to the client via
// Redis pub/sub. Field names are part of the frontend contract.
type PDFExportNotifyMessage struct {
	Status        string `json:"status"`
	CVID          uint   `json:"cv_id"`
	CorrelationID string `json:"correlation_id"`
	ErrorCode     int    `json:"error_code"`
	ErrorMessage  string `json:"error_message"`
}
