package dashboard

import (
	"context"

	"incidents-dashboard/pkg/models"
)

func (s *Service) AddTicket(ctx context.Context, ticketID string) models.MutationResult {
	return mutationResult(s.mutations.AddTicket(ctx, ticketID))
}

func (s *Service) AddTicketRow(ctx context.Context, ticketID string, row []string) models.MutationResult {
	return mutationResult(s.mutations.AddTicketRow(ctx, ticketID, row))
}

func (s *Service) AddRow(ctx context.Context, row []string) models.MutationResult {
	return mutationResult(s.mutations.AddRow(ctx, row))
}

func (s *Service) EditTicketRow(ctx context.Context, ticketID string, rank int, row []string) models.MutationResult {
	return mutationResult(s.mutations.EditTicketRow(ctx, ticketID, rank, row))
}

func (s *Service) EditRow(ctx context.Context, index int, row []string) models.MutationResult {
	return mutationResult(s.mutations.EditRow(ctx, index, row))
}

func (s *Service) DeleteTickets(ctx context.Context, ticketIDs []string) models.MutationResult {
	return mutationResult(s.mutations.DeleteTickets(ctx, ticketIDs))
}

func (s *Service) DeleteTicketRows(ctx context.Context, ticketID string, ranks []int) models.MutationResult {
	return mutationResult(s.mutations.DeleteTicketRows(ctx, ticketID, ranks))
}

func (s *Service) DeleteRows(ctx context.Context, indices []int) models.MutationResult {
	return mutationResult(s.mutations.DeleteRows(ctx, indices))
}
