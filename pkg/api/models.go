package api

type (
	message struct {
		Kind string `json:"kind"`
		Text string `json:"text"`
	}

	reqAddControls struct {
		Names []string `json:"names"`
	}

	reqControlState struct {
		Name string `json:"name"`
	}

	// Enabled is a '1'/'0' flag, empty means "flip current value".
	reqToggle struct {
		Enabled string `json:"enabled"`
	}

	respControl struct {
		Name     string    `json:"name,omitempty"`
		Enabled  bool      `json:"enabled"`
		Revision string    `json:"revision,omitempty"`
		Messages []message `json:"messages,omitempty"`
	}

	respControlList struct {
		Controls []respControl `json:"controls"`
	}
)
