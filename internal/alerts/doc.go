// Package alerts evaluates threshold rules against vehicle readings and
// status, tracks the firing/resolved lifecycle of each (rule, vehicle) pair,
// and delivers notifications to Teams, Slack or generic HTTP webhooks.
package alerts
