package handlers

import (
	"github.com/gin-gonic/gin"
)

const (
	VariantDefault     = "default"
	VariantDestructive = "destructive"
)

// Notice is a transient message for the page that made the request.
type Notice struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Variant     string `json:"variant"`
}

func success(title, description string) Notice {
	return Notice{Title: title, Description: description, Variant: VariantDefault}
}

func failure(title, description string) Notice {
	return Notice{Title: title, Description: description, Variant: VariantDestructive}
}

func respondError(c *gin.Context, status int, code string, n Notice) {
	c.JSON(status, gin.H{"error": code, "notice": n})
}

// shortAddress renders ST2J6Z...0RQ style abbreviations.
func shortAddress(address string) string {
	if len(address) <= 10 {
		return address
	}
	return address[:6] + "..." + address[len(address)-4:]
}
