package service

type accountsResponse struct {
	Accounts []struct {
		AccountID   string `json:"accountId"`
		AccountName string `json:"accountName"`
		Preferred   bool   `json:"preferred"`
		Balance     struct {
			Balance    float64 `json:"balance"`
			Deposit    float64 `json:"deposit"`
			ProfitLoss float64 `json:"profitLoss"`
			Available  float64 `json:"available"`
		} `json:"balance"`
	} `json:"accounts"`
}

type marketResponse struct {
	Instrument struct {
		Epic       string `json:"epic"`
		Currencies []struct {
			Code      string `json:"code"`
			IsDefault bool   `json:"isDefault"`
		} `json:"currencies"`
		MarginFactor     float64 `json:"marginFactor"`
		MarginFactorUnit string  `json:"marginFactorUnit"`
	} `json:"instrument"`
	DealingRules struct {
		MinNormalStopOrLimitDistance struct {
			Unit  string  `json:"unit"`
			Value float64 `json:"value"`
		} `json:"minNormalStopOrLimitDistance"`
	} `json:"dealingRules"`
	Snapshot struct {
		MarketStatus string   `json:"marketStatus"`
		Bid          *float64 `json:"bid"`
		Offer        *float64 `json:"offer"`
	} `json:"snapshot"`
}

type positionsResponse struct {
	Positions []struct {
		Position struct {
			DealID     string   `json:"dealId"`
			Size       float64  `json:"size"`
			Direction  string   `json:"direction"`
			Level      float64  `json:"level"`
			StopLevel  *float64 `json:"stopLevel"`
			LimitLevel *float64 `json:"limitLevel"`
		} `json:"position"`
		Market struct {
			Epic string `json:"epic"`
		} `json:"market"`
	} `json:"positions"`
}

type dealReferenceResponse struct {
	DealReference string `json:"dealReference"`
}

type confirmResponse struct {
	DealReference string   `json:"dealReference"`
	DealID        string   `json:"dealId"`
	DealStatus    string   `json:"dealStatus"`
	Status        string   `json:"status"`
	Reason        string   `json:"reason"`
	Epic          string   `json:"epic"`
	Direction     string   `json:"direction"`
	Level         float64  `json:"level"`
	Size          float64  `json:"size"`
	StopLevel     *float64 `json:"stopLevel"`
	LimitLevel    *float64 `json:"limitLevel"`
}

type pricePair struct {
	Bid *float64 `json:"bid"`
	Ask *float64 `json:"ask"`
}

type pricesResponse struct {
	Prices []struct {
		SnapshotTime     string    `json:"snapshotTime"`
		SnapshotTimeUTC  string    `json:"snapshotTimeUTC"`
		OpenPrice        pricePair `json:"openPrice"`
		ClosePrice       pricePair `json:"closePrice"`
		HighPrice        pricePair `json:"highPrice"`
		LowPrice         pricePair `json:"lowPrice"`
		LastTradedVolume float64   `json:"lastTradedVolume"`
	} `json:"prices"`
}
