package services

import (
	"context"
	"fmt"
	"strings"

	domain "github.com/snusnumrick/notalock-orders/internal/domain"
)

// smsEligibleStatuses lists the target statuses worth an SMS. Everything else
// is email-only.
var smsEligibleStatuses = map[domain.OrderStatus]struct{}{
	domain.OrderStatusProcessing: {},
	domain.OrderStatusPaid:       {},
	domain.OrderStatusCompleted:  {},
	domain.OrderStatusCancelled:  {},
}

// statusEmailTemplates maps a target order status to the email template sent
// when a change lands on it.
var statusEmailTemplates = map[domain.OrderStatus]struct {
	templateType string
	subject      string
	body         string
}{
	domain.OrderStatusProcessing: {
		templateType: "order_processing",
		subject:      "Your order %s is being processed",
		body:         "We have started working on order %s. We will let you know as soon as it ships.",
	},
	domain.OrderStatusPaid: {
		templateType: "order_paid",
		subject:      "Payment received for order %s",
		body:         "We received your payment for order %s. Thank you!",
	},
	domain.OrderStatusCompleted: {
		templateType: "order_completed",
		subject:      "Your order %s is complete",
		body:         "Order %s has been completed. We hope to see you again.",
	},
	domain.OrderStatusCancelled: {
		templateType: "order_cancelled",
		subject:      "Your order %s was cancelled",
		body:         "Order %s has been cancelled. If this was unexpected, please contact support.",
	},
	domain.OrderStatusRefunded: {
		templateType: "order_refunded",
		subject:      "Refund issued for order %s",
		body:         "A refund for order %s has been issued. Allow a few business days for it to appear.",
	},
	domain.OrderStatusFailed: {
		templateType: "order_failed",
		subject:      "There was a problem with order %s",
		body:         "Order %s could not be completed. Please review your payment details or contact support.",
	},
}

// statusSMSTexts maps a target order status to the short SMS body.
var statusSMSTexts = map[domain.OrderStatus]string{
	domain.OrderStatusProcessing: "Notalock: order %s is being processed.",
	domain.OrderStatusPaid:       "Notalock: payment received for order %s.",
	domain.OrderStatusCompleted:  "Notalock: order %s is complete. Thank you!",
	domain.OrderStatusCancelled:  "Notalock: order %s was cancelled.",
}

// NotificationOutcome reports per-channel delivery results of one dispatch.
type NotificationOutcome struct {
	Email BestEffort
	SMS   BestEffort
}

// NotificationDispatcherDeps bundles the collaborators of the dispatcher.
type NotificationDispatcherDeps struct {
	Email  Notifier
	SMS    Notifier
	Logger func(ctx context.Context, event string, fields map[string]any)
}

// NotificationDispatcher fans status changes out to email and SMS. Delivery
// failures are logged and never propagated to the triggering operation.
type NotificationDispatcher struct {
	email  Notifier
	sms    Notifier
	logger func(context.Context, string, map[string]any)
}

// NewNotificationDispatcher builds a dispatcher. Nil collaborators disable
// their channel.
func NewNotificationDispatcher(deps NotificationDispatcherDeps) *NotificationDispatcher {
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &NotificationDispatcher{
		email:  deps.Email,
		sms:    deps.SMS,
		logger: logger,
	}
}

// DispatchOrderCreated sends the order confirmation email.
func (d *NotificationDispatcher) DispatchOrderCreated(ctx context.Context, order Order) NotificationOutcome {
	var outcome NotificationOutcome
	if d == nil {
		return outcome
	}
	outcome.Email = d.sendEmail(ctx, order, NotificationMessage{
		Channel:      ChannelEmail,
		TemplateType: "order_confirmation",
		Recipient:    order.Email,
		Subject:      fmt.Sprintf("Order %s confirmed", order.OrderNumber),
		Message:      fmt.Sprintf("Thank you for your order %s. We will email you when it is on its way.", order.OrderNumber),
		Data: map[string]any{
			"orderNumber": order.OrderNumber,
			"total":       order.TotalAmount.StringFixed(2),
			"currency":    order.Currency,
		},
	})
	return outcome
}

// DispatchStatusChange sends the email matching the new status, plus an SMS
// when the status is SMS-eligible and the order carries a phone number.
func (d *NotificationDispatcher) DispatchStatusChange(ctx context.Context, order Order, previous, next domain.OrderStatus) NotificationOutcome {
	var outcome NotificationOutcome
	if d == nil || previous == next {
		return outcome
	}

	if tmpl, ok := statusEmailTemplates[next]; ok {
		outcome.Email = d.sendEmail(ctx, order, NotificationMessage{
			Channel:      ChannelEmail,
			TemplateType: tmpl.templateType,
			Recipient:    order.Email,
			Subject:      fmt.Sprintf(tmpl.subject, order.OrderNumber),
			Message:      fmt.Sprintf(tmpl.body, order.OrderNumber),
			Data: map[string]any{
				"orderNumber":    order.OrderNumber,
				"previousStatus": string(previous),
				"newStatus":      string(next),
			},
		})
	}

	if _, eligible := smsEligibleStatuses[next]; eligible {
		if phone := strings.TrimSpace(order.Phone); phone != "" {
			outcome.SMS = d.sendSMS(ctx, order, NotificationMessage{
				Channel:      ChannelSMS,
				TemplateType: "status_" + string(next),
				Recipient:    phone,
				Message:      fmt.Sprintf(statusSMSTexts[next], order.OrderNumber),
			})
		}
	}

	return outcome
}

func (d *NotificationDispatcher) sendEmail(ctx context.Context, order Order, msg NotificationMessage) BestEffort {
	if d.email == nil || strings.TrimSpace(msg.Recipient) == "" {
		return BestEffort{}
	}
	ok := d.email.Send(ctx, msg)
	if !ok {
		d.logger(ctx, "notification.email_failed", map[string]any{
			"order":    order.ID,
			"template": msg.TemplateType,
		})
	}
	return BestEffort{Attempted: true, OK: ok}
}

func (d *NotificationDispatcher) sendSMS(ctx context.Context, order Order, msg NotificationMessage) BestEffort {
	if d.sms == nil {
		return BestEffort{}
	}
	ok := d.sms.Send(ctx, msg)
	if !ok {
		d.logger(ctx, "notification.sms_failed", map[string]any{
			"order":    order.ID,
			"template": msg.TemplateType,
		})
	}
	return BestEffort{Attempted: true, OK: ok}
}
