// Package server exposes the ledger over a JSON HTTP API.
package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"splitbook/internal/apperr"
	"splitbook/internal/metrics"
	"splitbook/internal/service"
)

// Server wires the ledger services into an http.Handler.
type Server struct {
	groups *service.GroupService
	bills  *service.BillService
}

// New creates a Server over the given services.
func New(groups *service.GroupService, bills *service.BillService) *Server {
	return &Server{groups: groups, bills: bills}
}

// Handler builds the route table, wrapped in logging and CORS middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/groups", s.handleCreateGroup)
	mux.HandleFunc("GET /api/groups/{groupID}", s.handleGetGroup)
	mux.HandleFunc("DELETE /api/groups/{groupID}", s.handleDeleteGroup)
	mux.HandleFunc("POST /api/groups/{groupID}/members", s.handleAddMember)
	mux.HandleFunc("POST /api/groups/{groupID}/members/{index}/link", s.handleLinkMember)
	mux.HandleFunc("POST /api/groups/{groupID}/bills", s.handleCreateBill)
	mux.HandleFunc("GET /api/groups/{groupID}/bills", s.handleListBills)
	mux.HandleFunc("GET /api/groups/{groupID}/balances", s.handleGroupBalances)
	mux.HandleFunc("GET /api/groups/{groupID}/members/{index}/balances", s.handleMemberBalances)
	mux.HandleFunc("GET /api/bills/{billID}", s.handleGetBill)
	mux.HandleFunc("DELETE /api/bills/{billID}", s.handleDeleteBill)

	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return loggingMiddleware(corsMiddleware(mux))
}

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.Wrap(apperr.CodeInvalidArgument, "malformed request body", err))
		return
	}

	group, members, err := s.groups.Create(r.Context(), req.Name, req.Currency, req.Members)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toGroupResponse(group, members))
}

func (s *Server) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	group, members, err := s.groups.Get(r.Context(), r.PathValue("groupID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toGroupResponse(group, members))
}

func (s *Server) handleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	if err := s.groups.Delete(r.Context(), r.PathValue("groupID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddMember(w http.ResponseWriter, r *http.Request) {
	var req addMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.Wrap(apperr.CodeInvalidArgument, "malformed request body", err))
		return
	}

	member, err := s.groups.AddMember(r.Context(), r.PathValue("groupID"), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toMemberResponse(member))
}

func (s *Server) handleLinkMember(w http.ResponseWriter, r *http.Request) {
	index, err := pathIndex(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req linkMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.Wrap(apperr.CodeInvalidArgument, "malformed request body", err))
		return
	}

	if err := s.groups.LinkMember(r.Context(), r.PathValue("groupID"), index, req.AccountID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateBill(w http.ResponseWriter, r *http.Request) {
	var req createBillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.Wrap(apperr.CodeInvalidArgument, "malformed request body", err))
		return
	}

	drawees, err := parseShares("drawees", req.Drawees)
	if err != nil {
		writeError(w, err)
		return
	}
	payees, err := parseShares("payees", req.Payees)
	if err != nil {
		writeError(w, err)
		return
	}

	res, err := s.bills.Create(r.Context(), service.CreateBillInput{
		GroupID:   r.PathValue("groupID"),
		Name:      req.Name,
		Category:  req.Category,
		Notes:     req.Notes,
		IsPayment: req.IsPayment,
		CreatedBy: req.CreatedBy,
		CreatedAt: req.CreatedAt,
		Drawees:   drawees,
		Payees:    payees,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toMutationResponse(res))
}

func (s *Server) handleDeleteBill(w http.ResponseWriter, r *http.Request) {
	res, err := s.bills.Delete(r.Context(), r.PathValue("billID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMutationResponse(res))
}

func (s *Server) handleGetBill(w http.ResponseWriter, r *http.Request) {
	bill, err := s.bills.Get(r.Context(), r.PathValue("billID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBillResponse(bill))
}

func (s *Server) handleListBills(w http.ResponseWriter, r *http.Request) {
	bills, err := s.bills.List(r.Context(), r.PathValue("groupID"))
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]billResponse, len(bills))
	for i, b := range bills {
		out[i] = toBillResponse(b)
	}
	writeJSON(w, http.StatusOK, map[string]any{"bills": out})
}

func (s *Server) handleGroupBalances(w http.ResponseWriter, r *http.Request) {
	balances, err := s.groups.Balances(r.Context(), r.PathValue("groupID"))
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]balanceResponse, len(balances))
	for i, b := range balances {
		// Balance > 0 means UserB owes UserA.
		out[i] = balanceResponse{
			Creditor: b.UserA,
			Debtor:   b.UserB,
			Amount:   b.Balance.StringFixed(2),
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"balances": out})
}

func (s *Server) handleMemberBalances(w http.ResponseWriter, r *http.Request) {
	index, err := pathIndex(r)
	if err != nil {
		writeError(w, err)
		return
	}

	balances, err := s.groups.MemberBalances(r.Context(), r.PathValue("groupID"), index)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]memberBalanceResponse, len(balances))
	for i, b := range balances {
		out[i] = memberBalanceResponse{
			Counterparty: b.UserB,
			Balance:      b.Balance.StringFixed(2),
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"balances": out})
}

func toMutationResponse(res *service.BillResult) billMutationResponse {
	out := billMutationResponse{
		BillID:  res.Bill.ID,
		Members: toMemberResponses(res.Members),
		Drawees: sharesToPayload(res.Bill.Drawees),
		Payees:  sharesToPayload(res.Bill.Payees),
	}
	if res.GroupTotal != nil {
		total := res.GroupTotal.StringFixed(2)
		out.TotalGroupExpense = &total
	}
	return out
}

func pathIndex(r *http.Request) (int, error) {
	raw := r.PathValue("index")
	index, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Newf(apperr.CodeInvalidArgument, "invalid member index %q", raw)
	}
	return index, nil
}
