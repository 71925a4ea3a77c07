package model

// CustomerReceivable is the scan target for per-customer outstanding dues.
type CustomerReceivable struct {
	CustomerID   string `json:"customer_id"`
	CustomerName string `json:"customer_name"`
	TotalDue     string `json:"total_due"`
	BillCount    int    `json:"bill_count"`
}

// AgentCollection is the scan target for per-agent collected funds.
type AgentCollection struct {
	AgentID        string `json:"agent_id"`
	AgentName      string `json:"agent_name"`
	TotalCollected string `json:"total_collected"`
	TotalForwarded string `json:"total_forwarded"`
	TxCount        int    `json:"tx_count"`
}
