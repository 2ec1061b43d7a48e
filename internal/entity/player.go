package entity

// ConnRef identifies one live transport channel: the edge holding it and the edge-local connection id.
type ConnRef struct {
	Edge string `json:"edge"`
	Conn string `json:"conn"`
}

type Player struct {
	Name string  `json:"name"`
	Conn ConnRef `json:"conn"`
	Room string  `json:"room,omitempty"`
}

func (that *Player) InRoom() bool {
	return that.Room != ""
}
