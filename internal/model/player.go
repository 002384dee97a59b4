package model

type Player struct {
	ID        string
	BoardSize int
}

type ClientPlayer struct {
	ID       string `json:"name"`
	Color    Color  `json:"color"`
	TimeLeft int    `json:"timeLeft"`
	Computer bool   `json:"computer"`
}
