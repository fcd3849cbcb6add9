package astilibav

import astiremux "github.com/asticode/go-astiremux"

// Event names
const (
	EventNameLog astiremux.EventName = "astilibav.log"
)
