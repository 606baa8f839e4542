package cosmos

import (
	"encoding/json"
	"strconv"

	"github.com/bitfsorg/xchain-go/xchain"
)

// Coin is an amount of one denomination as the gateway reports it.
type Coin = xchain.Coin

// TxHistory is the reply of the /txs search.
type TxHistory struct {
	TotalCount intString     `json:"total_count"`
	Count      intString     `json:"count"`
	PageNumber intString     `json:"page_number"`
	PageTotal  intString     `json:"page_total"`
	Limit      intString     `json:"limit"`
	Txs        []*TxResponse `json:"txs"`
}

// TxResponse is one transaction with its inclusion data.
type TxResponse struct {
	Height    intString `json:"height"`
	TxHash    string    `json:"txhash"`
	RawLog    string    `json:"raw_log"`
	Timestamp string    `json:"timestamp"`
	Tx        struct {
		Body struct {
			Messages []json.RawMessage `json:"messages"`
			Memo     string            `json:"memo"`
		} `json:"body"`
	} `json:"tx"`
}

// bankMsg holds the fields of both bank message kinds. The kind is decided
// by which fields are present.
type bankMsg struct {
	FromAddress *string         `json:"from_address"`
	ToAddress   *string         `json:"to_address"`
	Amount      []Coin          `json:"amount"`
	Inputs      []xchain.BankIO `json:"inputs"`
	Outputs     []xchain.BankIO `json:"outputs"`
}

// accountMsg maps a raw message to its bank view. Messages of other modules
// map to an empty AccountMsg.
func accountMsg(raw json.RawMessage) xchain.AccountMsg {
	var m bankMsg
	if err := json.Unmarshal(raw, &m); err != nil {
		return xchain.AccountMsg{}
	}
	switch {
	case m.FromAddress != nil && m.ToAddress != nil && m.Amount != nil:
		return xchain.AccountMsg{Send: &xchain.MsgSend{
			FromAddress: *m.FromAddress,
			ToAddress:   *m.ToAddress,
			Amount:      m.Amount,
		}}
	case m.Inputs != nil && m.Outputs != nil:
		return xchain.AccountMsg{MultiSend: &xchain.MsgMultiSend{Inputs: m.Inputs, Outputs: m.Outputs}}
	default:
		return xchain.AccountMsg{}
	}
}

// intString decodes integers the gateway sends either as JSON numbers or as
// decimal strings.
type intString int64

func (n *intString) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		return nil
	}
	if len(s) >= 2 && s[0] == '"' {
		s = s[1 : len(s)-1]
	}
	if s == "" {
		*n = 0
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return err
	}
	*n = intString(v)
	return nil
}
