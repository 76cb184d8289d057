// Package project contains the millwork project aggregate: the project itself,
// its locations and walls, the products placed in them and the material
// callouts that specify finishes, hardware, sinks and appliances.
//
// A project is identified across stores by its natural key, the number
// assigned by the external project-management system. The same aggregate is
// persisted in the shared catalog and in a dedicated per-project store.
package project
