package picture

import (
	"bytes"
	"encoding/json"
)

// imageRequest тело POST и PUT запросов к API изображений
type imageRequest struct {
	Data        string `json:"data"`
	ContentType string `json:"contentType"`
	Location    string `json:"location"`
	Description string `json:"description"`
}

// imagePatchRequest тело PATCH: отсутствующие поля не сериализуются
type imagePatchRequest struct {
	Data        *string `json:"data,omitempty"`
	ContentType *string `json:"contentType,omitempty"`
	Location    *string `json:"location,omitempty"`
	Description *string `json:"description,omitempty"`
}

// imageResponse ответ API изображений
type imageResponse struct {
	ID          remoteID `json:"id"`
	ImageURL    string   `json:"imageUrl"`
	ContentType string   `json:"contentType"`
	Location    string   `json:"location"`
	Description string   `json:"description"`
}

// remoteID принимает id и строкой, и числом
type remoteID string

func (r *remoteID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = remoteID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*r = remoteID(n.String())
	return nil
}
