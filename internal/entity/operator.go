package entity

import "strconv"

// Operator é um usuário do CRM que pode receber leads.
type Operator struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// OperatorNames mapeia ids de operador para nomes.
type OperatorNames map[int]string

// Name usa o id numérico para operadores desconhecidos.
func (n OperatorNames) Name(id int) string {
	if name, ok := n[id]; ok && name != "" {
		return name
	}
	return strconv.Itoa(id)
}

type OperatorCount struct {
	OperatorID int    `json:"operator_id"`
	Name       string `json:"name"`
	Count      int    `json:"count"`
}
