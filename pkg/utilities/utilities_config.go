package utilities

import (
	"encoding/json"
	"os"
)

type JsonConfigObj[T any] interface {
	ConvertToDomain() T
}

func ReadConfig[T JsonConfigObj[U], U any](file string) (U, error) {
	var empty U

	fileContent, err := os.ReadFile(file)
	if err != nil {
		return empty, err
	}

	var config T
	err = json.Unmarshal(fileContent, &config)
	if err != nil {
		return empty, err
	}

	return config.ConvertToDomain(), nil
}

func ReadJSON[T any](file string) (T, error) {
	var empty T

	fileContent, err := os.ReadFile(file)
	if err != nil {
		return empty, err
	}

	var content T
	if err := json.Unmarshal(fileContent, &content); err != nil {
		return empty, err
	}

	return content, nil
}

// WriteJSON writes content indented, through a temp file renamed into
// place so a crash never leaves a truncated file behind.
func WriteJSON(file string, content any, perm os.FileMode) error {
	data, err := json.MarshalIndent(content, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	tmp := file + ".tmp"
	if err := os.WriteFile(tmp, data, perm); err != nil {
		return err
	}
	return os.Rename(tmp, file)
}
