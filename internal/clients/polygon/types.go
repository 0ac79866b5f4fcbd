package polygon

import "time"

// TickerSnapshot is the normalized view of one symbol from the full-market
// snapshot. Provider-specific shapes never leave this package.
type TickerSnapshot struct {
	Symbol         string
	DayVolume      float64
	DayClose       float64
	PrevClose      float64
	TodayChangePct float64
}

// Bar is a normalized OHLCV aggregate.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Trade is a normalized last-trade record.
type Trade struct {
	Price float64
	Size  float64
	Time  time.Time
}

// snapshotResponse mirrors the provider's v2 full-market snapshot payload.
type snapshotResponse struct {
	Tickers []snapshotTicker `json:"tickers"`
}

type snapshotTicker struct {
	Ticker         string  `json:"ticker"`
	TodaysChangeP  float64 `json:"todaysChangePerc"`
	Day            ohlcv   `json:"day"`
	PrevDay        ohlcv   `json:"prevDay"`
}

type ohlcv struct {
	Open   float64 `json:"o"`
	High   float64 `json:"h"`
	Low    float64 `json:"l"`
	Close  float64 `json:"c"`
	Volume float64 `json:"v"`
}

// aggsResponse mirrors the provider's v2 aggregates payload.
type aggsResponse struct {
	Results []aggResult `json:"results"`
}

type aggResult struct {
	Timestamp int64   `json:"t"` // ms since epoch
	Open      float64 `json:"o"`
	High      float64 `json:"h"`
	Low       float64 `json:"l"`
	Close     float64 `json:"c"`
	Volume    float64 `json:"v"`
}

// lastTradeResponse mirrors the provider's v2 last-trade payload.
type lastTradeResponse struct {
	Results struct {
		Price     float64 `json:"p"`
		Size      float64 `json:"s"`
		Timestamp int64   `json:"t"` // ns since epoch
	} `json:"results"`
}

func (s snapshotTicker) normalize() TickerSnapshot {
	return TickerSnapshot{
		Symbol:         s.Ticker,
		DayVolume:      s.Day.Volume,
		DayClose:       s.Day.Close,
		PrevClose:      s.PrevDay.Close,
		TodayChangePct: s.TodaysChangeP,
	}
}

func (a aggResult) normalize() Bar {
	return Bar{
		Time:   time.UnixMilli(a.Timestamp).UTC(),
		Open:   a.Open,
		High:   a.High,
		Low:    a.Low,
		Close:  a.Close,
		Volume: a.Volume,
	}
}
