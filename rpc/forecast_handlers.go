package rpc

import (
	"math/big"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"spredd/native/forecast"
)

type epochParams struct {
	Epoch uint64 `json:"epoch"`
}

type scoreParams struct {
	Epoch   uint64 `json:"epoch"`
	Role    string `json:"role"`
	Address string `json:"address"`
}

type lifetimeScoreParams struct {
	Role    string `json:"role"`
	Address string `json:"address"`
}

type topPerformersParams struct {
	Epoch uint64 `json:"epoch"`
	Role  string `json:"role"`
}

type previewTraderParams struct {
	Volume               string `json:"volume"`
	PositionTime         int64  `json:"positionTime"`
	CreationTime         int64  `json:"creationTime"`
	Duration             int64  `json:"duration"`
	CorrectSideLiquidity string `json:"correctSideLiquidity"`
	TotalLiquidity       string `json:"totalLiquidity"`
	PositionSize         string `json:"positionSize"`
}

type previewCreatorParams struct {
	Volume     string `json:"volume"`
	TradeCount uint64 `json:"tradeCount"`
}

type leaderboardParams struct {
	Epoch         uint64   `json:"epoch"`
	Traders       []string `json:"traders"`
	TraderPoints  []string `json:"traderPoints"`
	Creators      []string `json:"creators"`
	CreatorPoints []string `json:"creatorPoints"`
}

type leaderboardBatchParams struct {
	Epochs []leaderboardParams `json:"epochs"`
}

type scoreResult struct {
	Points string `json:"points"`
}

type topPerformerResult struct {
	Address string `json:"address"`
	Points  string `json:"points"`
	Reward  string `json:"reward"`
}

type distributionResult struct {
	Epoch     uint64               `json:"epoch"`
	TotalPaid string               `json:"totalPaid"`
	Remainder string               `json:"remainder"`
	Backdated bool                 `json:"backdated"`
	Winners   []topPerformerResult `json:"winners"`
}

func parseRole(value string) (forecast.Role, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "trader":
		return forecast.RoleTrader, true
	case "creator":
		return forecast.RoleCreator, true
	default:
		return 0, false
	}
}

func parseBigInt(value string) (*big.Int, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return big.NewInt(0), true
	}
	parsed, ok := new(big.Int).SetString(trimmed, 10)
	if !ok || parsed.Sign() < 0 {
		return nil, false
	}
	return parsed, true
}

func parseAddress(value string) (common.Address, bool) {
	if !common.IsHexAddress(value) {
		return common.Address{}, false
	}
	return common.HexToAddress(value), true
}

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func (s *Server) handleCurrentEpoch(w http.ResponseWriter, req *RPCRequest) {
	view, err := s.engine.CurrentEpoch()
	if err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, err.Error(), nil)
		return
	}
	writeResult(w, req.ID, view)
}

func (s *Server) handleEpoch(w http.ResponseWriter, req *RPCRequest) {
	var params epochParams
	if !decodeParams(w, req, &params) {
		return
	}
	view, err := s.engine.EpochInfo(params.Epoch)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	writeResult(w, req.ID, view)
}

func (s *Server) handlePendingEpochs(w http.ResponseWriter, req *RPCRequest) {
	pending, err := s.engine.PendingEpochs()
	if err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, err.Error(), nil)
		return
	}
	writeResult(w, req.ID, pending)
}

func (s *Server) handleScore(w http.ResponseWriter, req *RPCRequest) {
	var params scoreParams
	if !decodeParams(w, req, &params) {
		return
	}
	role, ok := parseRole(params.Role)
	if !ok {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "role must be trader or creator", nil)
		return
	}
	addr, ok := parseAddress(params.Address)
	if !ok {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid address", nil)
		return
	}
	points, err := s.engine.ScoreOf(params.Epoch, role, addr)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	writeResult(w, req.ID, scoreResult{Points: bigString(points)})
}

func (s *Server) handleLifetimeScore(w http.ResponseWriter, req *RPCRequest) {
	var params lifetimeScoreParams
	if !decodeParams(w, req, &params) {
		return
	}
	role, ok := parseRole(params.Role)
	if !ok {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "role must be trader or creator", nil)
		return
	}
	addr, ok := parseAddress(params.Address)
	if !ok {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid address", nil)
		return
	}
	points, err := s.engine.LifetimeScoreOf(role, addr)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	writeResult(w, req.ID, scoreResult{Points: bigString(points)})
}

func (s *Server) handleTopPerformers(w http.ResponseWriter, req *RPCRequest) {
	var params topPerformersParams
	if !decodeParams(w, req, &params) {
		return
	}
	role, ok := parseRole(params.Role)
	if !ok {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "role must be trader or creator", nil)
		return
	}
	entries, err := s.engine.TopPerformers(params.Epoch, role)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	out := make([]topPerformerResult, len(entries))
	for i, entry := range entries {
		out[i] = topPerformerResult{
			Address: entry.Address.Hex(),
			Points:  bigString(entry.Points),
			Reward:  bigString(entry.Reward),
		}
	}
	writeResult(w, req.ID, out)
}

func (s *Server) handlePreviewTraderScore(w http.ResponseWriter, req *RPCRequest) {
	var params previewTraderParams
	if !decodeParams(w, req, &params) {
		return
	}
	volume, ok := parseBigInt(params.Volume)
	if !ok {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid volume", nil)
		return
	}
	correct, ok := parseBigInt(params.CorrectSideLiquidity)
	if !ok {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid correctSideLiquidity", nil)
		return
	}
	total, ok := parseBigInt(params.TotalLiquidity)
	if !ok {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid totalLiquidity", nil)
		return
	}
	size, ok := parseBigInt(params.PositionSize)
	if !ok {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid positionSize", nil)
		return
	}
	points := forecast.TraderScore(size, volume, params.PositionTime, params.CreationTime, params.Duration, correct, total)
	writeResult(w, req.ID, scoreResult{Points: bigString(points)})
}

func (s *Server) handlePreviewCreatorScore(w http.ResponseWriter, req *RPCRequest) {
	var params previewCreatorParams
	if !decodeParams(w, req, &params) {
		return
	}
	volume, ok := parseBigInt(params.Volume)
	if !ok {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid volume", nil)
		return
	}
	points := forecast.CreatorScore(volume, params.TradeCount)
	writeResult(w, req.ID, scoreResult{Points: bigString(points)})
}

func decodeSubmission(params leaderboardParams) (forecast.LeaderboardSubmission, string) {
	sub := forecast.LeaderboardSubmission{Epoch: params.Epoch}
	for _, raw := range params.Traders {
		addr, ok := parseAddress(raw)
		if !ok {
			return sub, "invalid trader address"
		}
		sub.Traders = append(sub.Traders, addr)
	}
	for _, raw := range params.TraderPoints {
		points, ok := parseBigInt(raw)
		if !ok {
			return sub, "invalid trader points"
		}
		sub.TraderPoints = append(sub.TraderPoints, points)
	}
	for _, raw := range params.Creators {
		addr, ok := parseAddress(raw)
		if !ok {
			return sub, "invalid creator address"
		}
		sub.Creators = append(sub.Creators, addr)
	}
	for _, raw := range params.CreatorPoints {
		points, ok := parseBigInt(raw)
		if !ok {
			return sub, "invalid creator points"
		}
		sub.CreatorPoints = append(sub.CreatorPoints, points)
	}
	return sub, ""
}

func distributionResponse(dist *forecast.Distribution) distributionResult {
	out := distributionResult{
		Epoch:     dist.Epoch,
		TotalPaid: bigString(dist.TotalPaid),
		Remainder: bigString(dist.Remainder),
		Backdated: dist.Backdated,
	}
	for _, winner := range dist.Winners {
		out.Winners = append(out.Winners, topPerformerResult{
			Address: winner.Address.Hex(),
			Points:  bigString(winner.Points),
			Reward:  bigString(winner.Reward),
		})
	}
	return out
}

func (s *Server) handleSubmitLeaderboard(w http.ResponseWriter, req *RPCRequest) {
	var params leaderboardParams
	if !decodeParams(w, req, &params) {
		return
	}
	sub, problem := decodeSubmission(params)
	if problem != "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, problem, nil)
		return
	}
	dist, err := s.engine.SubmitLeaderboard(s.submitter, sub)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeServerError, err.Error(), nil)
		return
	}
	writeResult(w, req.ID, distributionResponse(dist))
}

func (s *Server) handleSubmitLeaderboardBatch(w http.ResponseWriter, req *RPCRequest) {
	var params leaderboardBatchParams
	if !decodeParams(w, req, &params) {
		return
	}
	subs := make([]forecast.LeaderboardSubmission, 0, len(params.Epochs))
	for _, entry := range params.Epochs {
		sub, problem := decodeSubmission(entry)
		if problem != "" {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, problem, nil)
			return
		}
		subs = append(subs, sub)
	}
	dists, err := s.engine.SubmitLeaderboardBatch(s.submitter, subs)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeServerError, err.Error(), nil)
		return
	}
	out := make([]distributionResult, len(dists))
	for i, dist := range dists {
		out[i] = distributionResponse(dist)
	}
	writeResult(w, req.ID, out)
}
