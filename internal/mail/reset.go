// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package mail

import "fmt"

// SendResetCode sends a password reset verification code.
func SendResetCode(s Sender, siteName, to, code string, expiryMinutes int) error {
	subject := fmt.Sprintf("%s password reset code", siteName)
	body := fmt.Sprintf(
		"Your %s password reset code is:\n\n    %s\n\nThe code expires in %d minutes. "+
			"If you did not request a reset, you can ignore this message.\n",
		siteName, code, expiryMinutes)
	return s.Send(to, subject, body)
}
