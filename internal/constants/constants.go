package constants

// Redis keys
const (
	RedisKeyRecentRoundTrips = "roundtrips:recent"
	RedisKeyRiskSpend        = "roundtrips:risk:spend"
)

// Redis Pub/Sub channels
const (
	PubSubChannelRoundTrips = "roundtrips:live"
)

// Limits
const (
	MaxRecentRoundTrips = 100
)

// Flags
const (
	FlagRoundTripEnabled = "roundtrip.enabled"
)

// Demo round trip: 0.005 SOL out and 99% of it back.
const (
	DemoAmountIn    uint64 = 5_000_000
	DemoRetainBps   uint16 = 9900
	DemoSlippageBps uint16 = 500
)

const LamportsPerSOL = 1_000_000_000

// Well-known mints
const (
	MintWSOL = "So11111111111111111111111111111111111111112"
	MintUSDC = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	MintUSDT = "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB"
	MintJUP  = "JUPyiwrYJFskUPiHa7hkeR8VUtAeFoSYbKedZNsDvCN"
	MintBONK = "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"
)

// Token mint addresses to symbols
var TokenSymbols = map[string]string{
	MintWSOL: "SOL",
	MintUSDC: "USDC",
	MintUSDT: "USDT",
	MintJUP:  "JUP",
	MintBONK: "BONK",
	"mSoLzYCxHdYgdzU16g5QSh3i5K3z3KZK7ytfqcJm7So":  "mSOL",
	"7vfCXTUXx5WJV5JADk17DUJ4ksgau7utNKj4b963voxs": "ETH",
	"4k3Dyjzvzp8eMZWUXbBCjEvwSkkk59S5iCNLY3QrkX6R": "RAY",
}

// Symbol returns the ticker for mint, or the mint itself when unknown.
func Symbol(mint string) string {
	if s, ok := TokenSymbols[mint]; ok {
		return s
	}
	return mint
}
