package data

import (
	"errors"
	"fmt"

	"github.com/ashwood-health/scr-backend/internal/template/types"

	templatemodels "github.com/ashwood-health/scr-backend/internal/template/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Parameter schema reported by the extraction assistant. The patient
// object mirrors the structure the extraction instructions demand.
const extractPatientDataSchema = `{
  "type": "object",
  "properties": {
    "patient": {
      "type": "object",
      "properties": {
        "forename": {"type": "string"},
        "surname": {"type": "string"},
        "dob": {"type": "string", "description": "Date of birth in YYYY-MM-DD format"},
        "nhsNumber": {"type": "string", "description": "NHS number in its original format including spaces"},
        "gpPractice": {"type": "string"},
        "registrationStatus": {"type": "string", "enum": ["Active", "Inactive", "Unknown"]},
        "allergies": {
          "type": "array",
          "items": {
            "type": "object",
            "properties": {
              "date": {"type": "string"},
              "description": {"type": "string"}
            },
            "required": ["date", "description"],
            "additionalProperties": false
          }
        },
        "acuteMedications": {
          "type": "array",
          "items": {
            "type": "object",
            "properties": {
              "date": {"type": "string"},
              "medication": {"type": "string"},
              "dosage": {"type": "string"}
            },
            "required": ["date", "medication", "dosage"],
            "additionalProperties": false
          }
        },
        "repeatMedications": {
          "type": "array",
          "items": {
            "type": "object",
            "properties": {
              "date": {"type": "string"},
              "medication": {"type": "string"},
              "dosage": {"type": "string"}
            },
            "required": ["date", "medication", "dosage"],
            "additionalProperties": false
          }
        },
        "diagnoses": {
          "type": "array",
          "items": {
            "type": "object",
            "properties": {
              "date": {"type": "string"},
              "description": {"type": "string"}
            },
            "required": ["date", "description"],
            "additionalProperties": false
          }
        },
        "problems": {
          "type": "array",
          "items": {
            "type": "object",
            "properties": {
              "date": {"type": "string"},
              "description": {"type": "string"}
            },
            "required": ["date", "description"],
            "additionalProperties": false
          }
        }
      },
      "required": ["forename", "surname", "dob", "nhsNumber", "gpPractice", "registrationStatus", "allergies", "acuteMedications", "repeatMedications", "diagnoses", "problems"],
      "additionalProperties": false
    }
  },
  "required": ["patient"],
  "additionalProperties": false
}`

const generateCSVSchema = `{
  "type": "object",
  "properties": {
    "csv_content": {
      "type": "string",
      "description": "CSV with the header Field,Value,Additional Information followed by one row per data point"
    }
  },
  "required": ["csv_content"],
  "additionalProperties": false
}`

// seedAssistantTypes creates the fixed assistant type categories and
// their tool descriptors. Existing types are left untouched.
func seedAssistantTypes(db *gorm.DB) error {
	seeds := []templatemodels.AssistantType{
		{
			Name: types.AssistantTypeExtraction,
			Tools: []templatemodels.Tool{
				{
					Type: string(types.ToolTypeFileSearch),
				},
				{
					Type:        string(types.ToolTypeFunction),
					Name:        "extract_patient_data",
					Description: "Report the structured patient data extracted from a summary care record",
					Schema:      templatemodels.JSON(extractPatientDataSchema),
					Strict:      true,
				},
			},
		},
		{
			Name: types.AssistantTypeCSV,
			Tools: []templatemodels.Tool{
				{
					Type:        string(types.ToolTypeFunction),
					Name:        "generate_csv",
					Description: "Return the generated CSV for the supplied patient data",
					Schema:      templatemodels.JSON(generateCSVSchema),
					Strict:      true,
				},
			},
		},
	}

	for _, seed := range seeds {
		var existing templatemodels.AssistantType
		err := db.Where("name = ?", seed.Name).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to look up assistant type %s: %w", seed.Name, err)
		}

		seed.ID = uuid.New().String()
		for i := range seed.Tools {
			seed.Tools[i].ID = uuid.New().String()
			seed.Tools[i].AssistantTypeID = seed.ID
		}
		if err := db.Create(&seed).Error; err != nil {
			return fmt.Errorf("failed to seed assistant type %s: %w", seed.Name, err)
		}
	}

	return nil
}
