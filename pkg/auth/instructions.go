package auth

import (
	"fmt"
	"io"
	"strings"
)

// WriteCookieGuide explains how to copy the session cookies out of a browser
// for `igharvest auth login --manual`
func WriteCookieGuide(w io.Writer) {
	rule := strings.Repeat("=", 72)
	lines := []string{
		rule,
		"INSTAGRAM SESSION COOKIES",
		rule,
		"",
		"igharvest can reuse the session of a browser you are logged in with.",
		"",
		"1. Open https://www.instagram.com and log in.",
		"2. Open the developer tools (F12, or Cmd+Option+I on macOS).",
		"3. Chrome/Edge: Application tab. Firefox: Storage tab.",
		"   Expand Cookies and select https://www.instagram.com.",
		"4. Copy the values of these cookies:",
		"",
		"   sessionid   required, looks like 12345678%3Aabcdef...",
		"   csrftoken   optional, 32 characters",
		"   ds_user_id  optional, your numeric user id",
		"",
		"Copy only the value, without quotes or semicolons. Sessions expire,",
		"so you may have to repeat this from time to time.",
		"",
		"These cookies give full access to the account. igharvest keeps them in",
		"the system keyring or in an encrypted file and never prints them.",
		rule,
		"",
	}
	for _, line := range lines {
		fmt.Fprintln(w, line)
	}
}

// WriteQuickGuide is the one-line reminder shown before the cookie prompts
func WriteQuickGuide(w io.Writer) {
	fmt.Fprintln(w, "Developer tools > Application/Storage > Cookies > instagram.com: copy sessionid (and csrftoken, ds_user_id).")
	fmt.Fprintln(w, "Type 'help' at any prompt for detailed instructions.")
}
