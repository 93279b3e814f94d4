package services

import "time"

func (s *TicketService) SetClock(now func() time.Time) { s.now = now }

func (s *PurchaseService) SetClock(now func() time.Time) { s.now = now }
