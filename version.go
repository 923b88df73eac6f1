package portfoliochat

var Version = "0.0.1"
