package dto

// UnicastCommandResponse reports a delivered device command.
type UnicastCommandResponse struct {
	CmdType         string   `json:"cmd_type"`
	FacilityID      string   `json:"facility_id"`
	TargetDeviceIDs []string `json:"target_device_ids"`
}
