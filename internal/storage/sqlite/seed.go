package sqlite

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/classpilot/backend/internal/storage/models"
)

// seedStandards is the starter set loaded at startup so pacing-guide imports
// and topic analysis have codes to resolve against before any bulk load.
var seedStandards = []models.Standard{
	{Code: "CCSS.MATH.K.CC.A.1", Description: "Count to 100 by ones and by tens", Grade: "K", Subject: "Math", System: "Common Core"},
	{Code: "CCSS.MATH.1.OA.A.1", Description: "Use addition and subtraction within 20 to solve word problems", Grade: "1", Subject: "Math", System: "Common Core"},
	{Code: "CCSS.MATH.2.NBT.B.5", Description: "Fluently add and subtract within 100", Grade: "2", Subject: "Math", System: "Common Core"},
	{Code: "CCSS.MATH.3.NF.A.1", Description: "Understand a fraction as the quantity formed by parts of a whole", Grade: "3", Subject: "Math", System: "Common Core"},
	{Code: "CCSS.MATH.4.NF.B.3", Description: "Understand addition and subtraction of fractions", Grade: "4", Subject: "Math", System: "Common Core"},
	{Code: "CCSS.MATH.5.NBT.B.7", Description: "Add, subtract, multiply, and divide decimals to hundredths", Grade: "5", Subject: "Math", System: "Common Core"},
	{Code: "CCSS.MATH.6.RP.A.1", Description: "Understand the concept of a ratio", Grade: "6", Subject: "Math", System: "Common Core"},
	{Code: "CCSS.MATH.7.EE.B.4", Description: "Use variables to represent quantities and construct simple equations", Grade: "7", Subject: "Math", System: "Common Core"},
	{Code: "CCSS.MATH.8.F.A.1", Description: "Understand that a function assigns exactly one output to each input", Grade: "8", Subject: "Math", System: "Common Core"},
	{Code: "CCSS.ELA.K.RF.1", Description: "Demonstrate understanding of the organization and basic features of print", Grade: "K", Subject: "ELA", System: "Common Core"},
	{Code: "CCSS.ELA.2.RL.1", Description: "Ask and answer such questions as who, what, where, when, why, and how", Grade: "2", Subject: "ELA", System: "Common Core"},
	{Code: "CCSS.ELA.4.RI.2", Description: "Determine the main idea of a text and explain how it is supported by key details", Grade: "4", Subject: "ELA", System: "Common Core"},
	{Code: "CCSS.ELA.6.W.1", Description: "Write arguments to support claims with clear reasons and relevant evidence", Grade: "6", Subject: "ELA", System: "Common Core"},
	{Code: "CCSS.ELA.8.RL.2", Description: "Determine a theme or central idea of a text and analyze its development", Grade: "8", Subject: "ELA", System: "Common Core"},
}

// SeedStandards upserts the starter standards. Existing rows keep their ids
// thanks to the (code, system) conflict clause, so reseeding is safe.
func (c *Client) SeedStandards() error {
	for i := range seedStandards {
		standard := seedStandards[i]
		standard.ID = uuid.New().String()
		if err := c.UpsertStandard(&standard); err != nil {
			return fmt.Errorf("failed to seed standard %s: %w", standard.Code, err)
		}
	}
	return nil
}
