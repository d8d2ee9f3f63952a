package enum

type Network uint8

const (
	_network_beg Network = iota
	NetworkProduction
	NetworkTestnet
	_network_end
)

func (n Network) IsAvailable() bool {
	return n > _network_beg && n < _network_end
}

// BaseURL returns the websocket base endpoint of the network.
func (n Network) BaseURL() string {
	switch n {
	case NetworkTestnet:
		return "wss://stream.testnet.binance.vision/ws"
	default:
		return "wss://stream.binance.com:9443/ws"
	}
}

// EnvFile returns the environment file loaded for the network.
func (n Network) EnvFile() string {
	if n == NetworkTestnet {
		return ".env_testnet"
	}
	return ".env"
}
